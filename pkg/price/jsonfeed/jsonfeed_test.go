package jsonfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
  {"price": 0.41, "start": "2024-03-12T00:00:00+01:00", "end": "2024-03-12T01:00:00+01:00"},
  {"price": 0.39, "start": "2024-03-12T01:00:00+01:00", "end": "2024-03-12T02:00:00+01:00"},
  {"price": 0.12, "start": "2024-03-12T02:00:00+01:00", "end": "2024-03-12T02:15:00+01:00"}
]`))
	}))
	defer server.Close()

	source, err := New(server.URL, nil)
	assert.NoError(t, err)
	assert.Equal(t, server.Listener.Addr().String(), source.Name())

	points, err := source.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Len(t, points, 2)
	assert.Equal(t, 0.39, points[1].Price)
}

func TestFetchErrors(t *testing.T) {
	var tests = []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "bad status", status: http.StatusServiceUnavailable, wantErr: "price feed failed with status code: 503"},
		{name: "bad json", status: http.StatusOK, body: "{", wantErr: "failed to decode price feed: unexpected EOF"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			source, err := New(server.URL, nil)
			assert.NoError(t, err)
			_, err = source.Fetch(context.Background())
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestNewRejectsOtherSchemes(t *testing.T) {
	_, err := New("ftp://prices.example", nil)
	assert.Error(t, err)
}
