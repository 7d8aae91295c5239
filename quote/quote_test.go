package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Quote(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
		want string
	}{
		{"top level field", `{"last": 579.18}`, "$.last", "579.18"},
		{"nested field", `{"quote": {"price": "101.5"}}`, "$.quote.price", "101.5"},
		{"decimal comma", `{"last": "1,0487"}`, "$.last", "1.0487"},
		{"list keeps first match", `{"series": [[1, 2.5], [2, 3.25]]}`, "$.series[-1:][1]", "3.25"},
		{"whole document", `42.125`, "", "42.125"},
		{"exact precision", `{"last": 0.1000000000000000055511}`, "$.last", "0.1000000000000000055511"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, http.StatusOK, tt.body)
			got, err := New().Quote(context.Background(), srv.URL, tt.path)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestClient_QuoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		path   string
		want   string
	}{
		{"bad status", http.StatusInternalServerError, `{}`, "$.last", "unexpected status 500"},
		{"invalid json", http.StatusOK, `{"last":`, "$.last", "decode"},
		{"missing field", http.StatusOK, `{"bid": 1}`, "$.last", "evaluate"},
		{"not a number", http.StatusOK, `{"last": "./."}`, "$.last", `value "./." is not a number`},
		{"empty match", http.StatusOK, `{"series": []}`, "$.series[*]", "no match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body)
			_, err := New().Quote(context.Background(), srv.URL, tt.path)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClient_QuoteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	_, err := New(WithTimeout(50*time.Millisecond)).Quote(context.Background(), srv.URL, "$.last")
	assert.Error(t, err)
}

func TestClient_QuoteInvalidSource(t *testing.T) {
	_, err := New().Quote(context.Background(), "://nope", "$.last")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quote source")
}
