package gateway

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePNG(size int) []byte {
	data := []byte("\x89PNG\r\n\x1a\n")
	return append(data, bytes.Repeat([]byte{0x42}, size)...)
}

func TestParsePairingResponse_ImageContentType(t *testing.T) {
	img := fakePNG(32)

	p := ParsePairingResponse(http.StatusOK, "image/png", img)

	require.Equal(t, PairingQRImage, p.Kind)
	assert.Equal(t, img, p.Image)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(img), p.QRCode())

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(p.QRCode(), "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, img, decoded)
}

func TestParsePairingResponse_ImageContentTypeWithParams(t *testing.T) {
	p := ParsePairingResponse(http.StatusOK, "image/jpeg; charset=binary", []byte{0xff, 0xd8, 0xff})

	require.Equal(t, PairingQRImage, p.Kind)
	assert.True(t, strings.HasPrefix(p.QRCode(), "data:image/jpeg;base64,"))
}

func TestParsePairingResponse_AlreadyConnected(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusConflict} {
		p := ParsePairingResponse(status, "application/json", []byte(`{"error":"You are already connected."}`))
		assert.Equal(t, PairingPaired, p.Kind, "status %d", status)
		assert.Empty(t, p.QRCode())
	}

	p := ParsePairingResponse(http.StatusConflict, "text/plain", []byte("Instance already connected"))
	assert.Equal(t, PairingPaired, p.Kind)
}

func TestParsePairingResponse_JSONDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(fakePNG(10))

	p := ParsePairingResponse(http.StatusOK, "application/json", []byte(`{"value":"`+uri+`"}`))

	require.Equal(t, PairingQRDataURI, p.Kind)
	assert.Equal(t, uri, p.QRCode())
}

func TestParsePairingResponse_JSONBase64UnderAlternateKey(t *testing.T) {
	img := fakePNG(16)
	body := `{"data":{"qrcode":"` + base64.StdEncoding.EncodeToString(img) + `"}}`

	p := ParsePairingResponse(http.StatusOK, "application/json", []byte(body))

	require.Equal(t, PairingQRImage, p.Kind)
	assert.Equal(t, img, p.Image)
	assert.Equal(t, "image/png", p.MimeType)
}

func TestParsePairingResponse_RawPairingStringIsRendered(t *testing.T) {
	p := ParsePairingResponse(http.StatusOK, "application/json", []byte(`{"value":"2@Xyz,AbC+def==,ghi"}`))

	require.Equal(t, PairingQRImage, p.Kind)
	assert.Equal(t, "image/png", p.MimeType)
	assert.True(t, bytes.HasPrefix(p.Image, []byte("\x89PNG")))
}

func TestParsePairingResponse_RawBase64Body(t *testing.T) {
	img := fakePNG(120)
	encoded := base64.StdEncoding.EncodeToString(img)
	require.Greater(t, len(encoded), rawBase64Threshold)

	p := ParsePairingResponse(http.StatusOK, "text/plain", []byte(encoded))

	require.Equal(t, PairingQRImage, p.Kind)
	assert.Equal(t, img, p.Image)
}

func TestParsePairingResponse_ShortTextIsError(t *testing.T) {
	p := ParsePairingResponse(http.StatusOK, "text/plain", []byte("try again"))

	assert.Equal(t, PairingError, p.Kind)
	assert.Equal(t, "try again", p.Reason)
}

func TestParsePairingResponse_GatewayErrorKeepsReason(t *testing.T) {
	p := ParsePairingResponse(http.StatusNotFound, "application/json", []byte(`{"error":"Instance not found"}`))

	assert.Equal(t, PairingError, p.Kind)
	assert.Equal(t, "Instance not found", p.Reason)
}

func TestParsePairingResponse_ConnectedFlag(t *testing.T) {
	p := ParsePairingResponse(http.StatusOK, "application/json", []byte(`{"connected":true}`))
	assert.Equal(t, PairingPaired, p.Kind)
}
