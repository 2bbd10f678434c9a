package notify

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

func TestWebhook_PostsConnectionEvent(t *testing.T) {
	var got ConnectionEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	evt := NewConnectionEvent(EventConnected, 7, 3)
	evt.Phone = "5511999999999"
	err := NewWebhook(server.URL, time.Second).ConnectionEstablished(context.Background(), evt)

	require.NoError(t, err)
	assert.Equal(t, EventConnected, got.Event)
	assert.Equal(t, uint(7), got.ProfileID)
	assert.Equal(t, uint(3), got.OrganizationID)
	assert.Equal(t, "5511999999999", got.Phone)
	assert.NotEmpty(t, got.EventID)
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewWebhook(server.URL, time.Second).ConnectionEstablished(context.Background(), NewConnectionEvent(EventConnected, 1, 1))
	assert.Error(t, err)
}

func TestWebhook_EmptyURLIsNoop(t *testing.T) {
	assert.NoError(t, NewWebhook("", time.Second).ConnectionEstablished(context.Background(), ConnectionEvent{}))
}

func TestPostJSON_DecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, PostJSON(context.Background(), server.Client(), server.URL, map[string]string{"a": "b"}, &out))
	assert.True(t, out.OK)
}
