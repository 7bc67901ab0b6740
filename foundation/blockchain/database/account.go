package database

import "fmt"

// AccountOperation is one account's state delta within one transaction or
// coinbase. OpNonce increases by exactly one for every operation recorded
// against the address and UpdatedBalance carries the running balance.
type AccountOperation struct {
	Address        string `json:"address" validate:"required"`
	Operation      int64  `json:"operation"`
	OpNonce        uint64 `json:"op_nonce"`
	UpdatedBalance int64  `json:"updated_balance"`
}

// FirstOperation constructs the operation for an address that has no
// history on the ledger.
func FirstOperation(address string, operation int64) AccountOperation {
	return AccountOperation{
		Address:        address,
		Operation:      operation,
		OpNonce:        0,
		UpdatedBalance: operation,
	}
}

// Next constructs the operation that follows this one for the same address.
func (op AccountOperation) Next(operation int64) AccountOperation {
	return AccountOperation{
		Address:        op.Address,
		Operation:      operation,
		OpNonce:        op.OpNonce + 1,
		UpdatedBalance: op.UpdatedBalance + operation,
	}
}

// Follows reports whether this operation is a correct continuation of the
// prior operation for the same address.
func (op AccountOperation) Follows(prior AccountOperation) error {
	if op.Address != prior.Address {
		return fmt.Errorf("address mismatch, got %s, exp %s", op.Address, prior.Address)
	}

	if op.OpNonce != prior.OpNonce+1 {
		return fmt.Errorf("op_nonce is not the next in sequence, got %d, exp %d", op.OpNonce, prior.OpNonce+1)
	}

	if op.UpdatedBalance != prior.UpdatedBalance+op.Operation {
		return fmt.Errorf("updated_balance does not carry forward, got %d, exp %d", op.UpdatedBalance, prior.UpdatedBalance+op.Operation)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (op AccountOperation) String() string {
	address := op.Address
	if len(address) > 12 {
		address = address[:12]
	}

	return fmt.Sprintf("%s:%d:%+d=%d", address, op.OpNonce, op.Operation, op.UpdatedBalance)
}
