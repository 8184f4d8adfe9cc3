package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartbedding/panel/internal/common"
	"github.com/smartbedding/panel/internal/models"
	"github.com/smartbedding/panel/internal/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, store sessions.TokenStore) *DeviceClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewDeviceClient(Options{Endpoint: server.URL, Timeout: 2 * time.Second}, store)
	require.NoError(t, err)
	return client
}

func TestNewDeviceClient_RequiresEndpoint(t *testing.T) {
	_, err := NewDeviceClient(Options{}, sessions.NewMemoryStore())
	assert.Error(t, err)
}

func TestDeviceClient_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AuthPath, r.URL.Path)

		var body models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body.Code == "1234" {
			writeJSON(w, http.StatusOK, models.NewSuccessResponse("tok-abc", "Token generated"))
			return
		}
		writeJSON(w, http.StatusOK, models.NewFailureResponse[string]("Invalid code"))
	}, sessions.NewMemoryStore())

	res, err := client.Login(context.Background(), "1234")
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	assert.Equal(t, "tok-abc", *res.Data)

	res, err = client.Login(context.Background(), "9999")
	require.NoError(t, err)
	assert.False(t, res.Accepted())
	assert.Nil(t, res.Data)
	assert.Equal(t, "Invalid code", res.GetMessage())
}

func TestDeviceClient_SendsUserAgent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, common.ReadBuildInfo().UserAgent(), r.Header.Get("User-Agent"))
		writeJSON(w, http.StatusOK, models.NewSuccessResponse("tok-abc", "Token generated"))
	}, sessions.NewMemoryStore())

	_, err := client.Login(context.Background(), "1234")
	require.NoError(t, err)
}

func TestDeviceClient_VerifyUnauthorized(t *testing.T) {
	store := sessions.NewMemoryStore()
	require.NoError(t, store.Set("tok-stale"))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, models.NewFailureResponse[json.RawMessage]("Auth incorrect"))
	}, store)

	var calls atomic.Int32
	client.OnUnauthorized(UnauthorizedFunc(func() { calls.Add(1) }))

	res, err := client.Verify(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NotNil(t, res)
	assert.False(t, res.Result)
	assert.Equal(t, "Auth incorrect", res.GetMessage())
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeviceClient_ConnectivityPassesPayloadThrough(t *testing.T) {
	answer := models.ConnectivityAnswer{APMode: false, BrokerMQTT: true, WifiSSID: "home"}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(answer, ""))
	}, func() sessions.TokenStore {
		store := sessions.NewMemoryStore()
		_ = store.Set("tok-abc")
		return store
	}())

	res, err := client.Connectivity(context.Background())
	require.NoError(t, err)
	require.True(t, res.Accepted())

	decoded, err := models.DecodeConnectivity(*res.Data)
	require.NoError(t, err)
	assert.Equal(t, answer.WifiSSID, decoded.WifiSSID)
	assert.True(t, decoded.BrokerMQTT)
}

func TestDeviceClient_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>not json</html>"))
	}, sessions.NewMemoryStore())

	_, err := client.Connectivity(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestDeviceClient_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, sessions.NewMemoryStore())

	_, err := client.Connectivity(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestDeviceClient_DropsDataOnRejectedEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":false,"timestamp":"","data":{"APMode":true},"message":"device offline"}`))
	}, sessions.NewMemoryStore())

	res, err := client.Connectivity(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Accepted())
	assert.Nil(t, res.Data)
	assert.Equal(t, "device offline", res.GetMessage())
}
