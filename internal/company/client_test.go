package company

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() Payload {
	return Payload{
		Name: "Acme Logistics",
		Type: "llc",
		Address: Address{
			Line1: "1 Market St",
			City:  "San Francisco",
			State: "CA",
			Zip:   "94105",
		},
		Contact: Contact{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@acme.com",
			Phone:     "4155550123",
		},
	}
}

func TestClientSubmit(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Result
	}{
		{"ok", http.StatusOK, `{"status":"ok","message":"Created"}`, Result{StatusOK, "Created"}},
		{"api error", http.StatusOK, `{"status":"error","message":"Duplicate name"}`, Result{StatusError, "Duplicate name"}},
		{"api error without message", http.StatusBadRequest, `{"status":"error"}`, Result{StatusError, UnexpectedErrorMessage}},
		{"unknown status keeps message", http.StatusOK, `{"status":"maybe","message":"Try again tomorrow"}`, Result{StatusError, "Try again tomorrow"}},
		{"unknown status without message", http.StatusOK, `{"status":"maybe"}`, Result{StatusError, UnexpectedErrorMessage}},
		{"missing status keeps message", http.StatusServiceUnavailable, `{"message":"Maintenance window"}`, Result{StatusError, "Maintenance window"}},
		{"garbage", http.StatusInternalServerError, `<html>oops</html>`, Result{StatusError, UnexpectedErrorMessage}},
		{"empty body", http.StatusNoContent, ``, Result{StatusError, UnexpectedErrorMessage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{Endpoint: srv.URL})
			assert.Equal(t, tt.want, c.Submit(context.Background(), testPayload()))
		})
	}
}

func TestClientSendsJSONPayload(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"ok","message":"Created"}`))
	}))
	defer srv.Close()

	res := NewClient(Config{Endpoint: srv.URL}).Submit(context.Background(), testPayload())
	assert.True(t, res.OK())
	assert.Equal(t, testPayload(), got)
}

func TestClientPayloadShape(t *testing.T) {
	data, err := json.Marshal(testPayload())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Acme Logistics", raw["name"])
	assert.Contains(t, raw["address"], "line1")
	assert.Contains(t, raw["contact"], "firstName")
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewClient(Config{Endpoint: url}).Submit(context.Background(), testPayload())
	assert.Equal(t, Result{StatusError, UnexpectedErrorMessage}, res)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	res := c.Submit(context.Background(), testPayload())
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, UnexpectedErrorMessage, res.Message)
}

func TestClientDefaultEndpoint(t *testing.T) {
	assert.Equal(t, DefaultEndpoint, NewClient(Config{}).Endpoint())
}
