// Package errs maps the errors handlers return onto the JSON body and status
// code the node API responds with.
package errs

import (
	"errors"
	"net/http"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/mempool"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/validate"
)

// Response is the body of every failed API call. Rule names the ledger rule
// a rejected transaction or block broke. Missing is the [start, end) block
// interval a node needs before it can take a submitted range.
type Response struct {
	Error   string            `json:"error"`
	Rule    string            `json:"rule,omitempty"`
	Missing []uint64          `json:"missing,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Trusted carries an error whose message is safe to show the caller along
// with the status to answer with.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps err so the caller sees its message with the status.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap gives errors.Is and errors.As access to the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted reports whether a Trusted error is in the chain.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns the Trusted error in the chain or nil.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// NewResponse classifies err. A Trusted error answers with its own status.
// Otherwise shape problems answer 400, ledger rule violations 422, and
// ranges that don't connect or repeated transactions 409. Anything else
// answers 500 without leaking its message.
func NewResponse(err error) (Response, int) {
	switch {
	case IsTrusted(err):
		te := GetTrusted(err)
		return Response{Error: te.Error()}, te.Status

	case validate.IsFieldErrors(err):
		return Response{
			Error:  "data validation error",
			Fields: validate.GetFieldErrors(err).Fields(),
		}, http.StatusBadRequest

	case operator.IsValidationError(err):
		ve := operator.GetValidationError(err)
		return Response{
			Error: ve.Error(),
			Rule:  ve.Rule,
		}, http.StatusUnprocessableEntity

	case operator.IsMissingRange(err):
		mr := operator.GetMissingRange(err)
		return Response{
			Error:   mr.Error(),
			Missing: []uint64{mr.Start, mr.End},
		}, http.StatusConflict

	case errors.Is(err, mempool.ErrDuplicate):
		return Response{Error: mempool.ErrDuplicate.Error()}, http.StatusConflict

	}

	return Response{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError
}
