package cmd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"echo":` + string(body) + `}`))
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var resp struct {
		Echo int `json:"echo"`
	}
	if err := send(http.MethodPost, srv.URL+"/ok", []byte("42"), &resp); err != nil {
		t.Fatalf("Should be able to call the node: %s", err)
	}
	if resp.Echo != 42 {
		t.Fatalf("Should decode the response, got %d", resp.Echo)
	}

	if err := send(http.MethodGet, srv.URL+"/empty", nil, &resp); err != nil {
		t.Fatalf("Should accept an empty response: %s", err)
	}

	err := send(http.MethodGet, srv.URL+"/missing", nil, &resp)
	if !isStatus(err, http.StatusNotFound) {
		t.Fatalf("Should report the status of a failure, got %v", err)
	}
}
