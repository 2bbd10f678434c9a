package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Credentials{
		BaseURL:     server.URL,
		InstanceID:  "inst-1",
		Token:       "tok-1",
		ClientToken: "client-secret",
	}, server.Client())
}

func TestClient_SendTextStripsPhoneFormatting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/instances/inst-1/token/tok-1/send-text", r.URL.Path)
		assert.Equal(t, "client-secret", r.Header.Get("Client-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "5511999999999", payload["phone"])
		assert.Equal(t, "hello", payload["message"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"zaapId":"z-1","messageId":"m-1","id":"m-1"}`))
	})

	res, err := client.SendText(context.Background(), "+55 (11) 99999-9999", "hello")

	require.NoError(t, err)
	assert.Equal(t, "m-1", res.MessageID)
	assert.Equal(t, "z-1", res.ZaapID)
	assert.Equal(t, "5511999999999", res.Phone)
}

func TestClient_SendTextPassesGatewayErrorThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Phone number does not exist on WhatsApp"}`))
	})

	_, err := client.SendText(context.Background(), "5511999999999", "hello")

	require.Error(t, err)
	assert.Equal(t, "Phone number does not exist on WhatsApp", err.Error())
	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadRequest, gwErr.Status)
}

func TestClient_SendTextRejectsEmptyPhone(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway must not be called")
	})

	_, err := client.SendText(context.Background(), "n/a", "hello")

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, CodeInvalidPhone, gwErr.Code)
}

func TestClient_RequestPairingCodeImage(t *testing.T) {
	img := fakePNG(40)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instances/inst-1/token/tok-1/qr-code/image", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	})

	p, err := client.RequestPairingCode(context.Background())

	require.NoError(t, err)
	require.Equal(t, PairingQRImage, p.Kind)
	assert.Equal(t, img, p.Image)
}

func TestClient_RequestPairingCodeAlreadyConnected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Instance already connected"}`))
	})

	p, err := client.RequestPairingCode(context.Background())

	require.NoError(t, err)
	assert.Equal(t, PairingPaired, p.Kind)
}

func TestClient_GetStatusReadsDeviceWhenPhoneMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/instances/inst-1/token/tok-1/status":
			w.Write([]byte(`{"connected":true,"smartphoneConnected":true}`))
		case "/instances/inst-1/token/tok-1/device":
			w.Write([]byte(`{"phone":"5511988887777","name":"Acme Store"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	st, err := client.GetStatus(context.Background())

	require.NoError(t, err)
	assert.True(t, st.Connected)
	assert.Equal(t, "5511988887777", st.Phone)
	assert.Equal(t, "Acme Store", st.DisplayName)
}

func TestClient_DisconnectWhenNotPairedIsNoop(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"You need to be connected to access this route"}`))
	})

	assert.NoError(t, client.Disconnect(context.Background()))
}

func TestClient_UnreachableGateway(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(Credentials{BaseURL: server.URL, InstanceID: "i", Token: "t"}, nil)

	_, err := client.GetStatus(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
}

func TestClient_ContactsAndChatMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/instances/inst-1/token/tok-1/contacts":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
			w.Write([]byte(`[{"phone":"5511911112222","name":"","vname":"Bakery"}]`))
		case "/instances/inst-1/token/tok-1/chat-messages/5511911112222":
			w.Write([]byte(`[{"messageId":"abc","phone":"5511911112222","fromMe":false,"momment":1700000000000,"text":{"message":"hi"}}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	contacts, err := client.Contacts(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Bakery", contacts[0].Name)

	msgs, err := client.ChatMessages(context.Background(), "+55 11 91111-2222")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, int64(1700000000000), msgs[0].Timestamp.UnixMilli())
}
