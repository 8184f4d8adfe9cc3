package client

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/smartbedding/panel/internal/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizer_AttachesBearerToken(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := sessions.NewMemoryStore()
	require.NoError(t, store.Set("tok-abc"))

	authorizer := NewAuthorizer(store, nil)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := authorizer.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer tok-abc", seen)
	assert.Empty(t, req.Header.Get("Authorization"), "caller request must not be mutated")
}

func TestAuthorizer_ForwardsUnmodifiedWithoutToken(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	authorizer := NewAuthorizer(sessions.NewMemoryStore(), nil)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := authorizer.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, seen)
}

func TestAuthorizer_UnauthorizedFiresHandlerAndKeepsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := sessions.NewMemoryStore()
	require.NoError(t, store.Set("tok-stale"))

	var calls atomic.Int32
	authorizer := NewAuthorizer(store, nil)
	authorizer.OnUnauthorized(UnauthorizedFunc(func() { calls.Add(1) }))

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := authorizer.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAuthorizer_SuccessDoesNotFireHandler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var calls atomic.Int32
	authorizer := NewAuthorizer(sessions.NewMemoryStore(), nil)
	authorizer.OnUnauthorized(UnauthorizedFunc(func() { calls.Add(1) }))

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := authorizer.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(0), calls.Load())
}

func TestAuthorizer_TransportErrorIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var calls atomic.Int32
	authorizer := NewAuthorizer(sessions.NewMemoryStore(), nil)
	authorizer.OnUnauthorized(UnauthorizedFunc(func() { calls.Add(1) }))

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)

	_, err = authorizer.RoundTrip(req)
	assert.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())
}
