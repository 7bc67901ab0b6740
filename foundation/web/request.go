package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/validate"
)

// Param returns the web call parameters from the request.
func Param(r *http.Request, key string) string {
	m := httptreemux.ContextParams(r.Context())
	return m[key]
}

// maxBodySize caps the request bodies the handlers read.
const maxBodySize = 8 << 20

// Body reads the body of an HTTP request.
func Body(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("unable to read payload: %w", err)
	}

	return data, nil
}

// Decode reads the body of an HTTP request looking for a single JSON
// document. The body is decoded into the provided value, unknown fields
// are rejected.
//
// If the provided value is a struct then it is checked for validation tags.
func Decode(r *http.Request, val any) error {
	data, err := Body(r)
	if err != nil {
		return err
	}

	return validate.Decode(data, val)
}
