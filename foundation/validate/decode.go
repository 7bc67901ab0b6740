package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Decode performs a strongly typed JSON decode that fails closed. Unknown
// fields and trailing data are rejected. If the provided value is a struct
// then it is checked for validation tags.
func Decode(data []byte, val any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(val); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if decoder.More() {
		return fmt.Errorf("unable to decode payload: trailing data")
	}

	if !isStruct(val) {
		return nil
	}

	return Check(val)
}

func isStruct(val any) bool {
	v := reflect.ValueOf(val)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return v.Kind() == reflect.Struct
}
