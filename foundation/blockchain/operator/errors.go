package operator

import (
	"errors"
	"fmt"
)

// Set of rules a transaction or block can violate.
const (
	RuleMalformed         = "malformed"
	RuleSign              = "sign"
	RuleDistinct          = "distinct accounts"
	RuleZeroSum           = "zero sum"
	RuleBalance           = "balance"
	RuleCongruence        = "congruence"
	RuleSignature         = "signature"
	RuleProofOfWork       = "proof of work"
	RuleContinuity        = "continuity"
	RuleCoinbaseSignature = "coinbase signature"
	RuleTimestamp         = "timestamp"
	RuleCoinbase          = "coinbase congruence"
	RuleReward            = "reward"
	RuleRange             = "range"
)

// ValidationError is returned when a well formed transaction or block
// breaks a ledger rule.
type ValidationError struct {
	Rule    string
	Message string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Rule, ve.Message)
}

// IsValidationError checks if an error of type ValidationError exists.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationError returns a copy of the ValidationError pointer.
func GetValidationError(err error) *ValidationError {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	return ve
}

func invalid(rule string, format string, args ...any) *ValidationError {
	return &ValidationError{
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	}
}

// =============================================================================

// MissingRangeError is returned when a block range doesn't start on or
// before the tip of the local chain. The blocks in [Start, End) are needed
// before the range can be applied.
type MissingRangeError struct {
	Start uint64
	End   uint64
}

// Error implements the error interface.
func (mr *MissingRangeError) Error() string {
	return fmt.Sprintf("missing blocks in range [%d, %d)", mr.Start, mr.End)
}

// IsMissingRange checks if an error of type MissingRangeError exists.
func IsMissingRange(err error) bool {
	var mr *MissingRangeError
	return errors.As(err, &mr)
}

// GetMissingRange returns a copy of the MissingRangeError pointer.
func GetMissingRange(err error) *MissingRangeError {
	var mr *MissingRangeError
	if !errors.As(err, &mr) {
		return nil
	}
	return mr
}
