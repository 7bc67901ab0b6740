package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// statusError is returned when the node answers with a failure.
type statusError struct {
	Status  int
	Message string
}

func (se *statusError) Error() string {
	return fmt.Sprintf("node answered %d: %s", se.Status, se.Message)
}

func isStatus(err error, status int) bool {
	var se *statusError
	return errors.As(err, &se) && se.Status == status
}

var client = http.Client{Timeout: 10 * time.Second}

// send performs the call against the node, posting dataSend when it is
// provided and decoding the response into dataRecv.
func send(method string, url string, dataSend []byte, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		body = bytes.NewReader(dataSend)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return &statusError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
