package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"
)

type PairingKind int

const (
	PairingError PairingKind = iota
	PairingPaired
	PairingQRImage
	PairingQRDataURI
)

func (k PairingKind) String() string {
	switch k {
	case PairingPaired:
		return "paired"
	case PairingQRImage:
		return "qr_image"
	case PairingQRDataURI:
		return "qr_data_uri"
	default:
		return "error"
	}
}

// rawBase64Threshold is the length above which a body without "{" is taken
// as a bare base64 image.
const rawBase64Threshold = 100

var qrKeys = []string{"value", "qrcode", "qr", "qr_code", "qrCode", "base64", "base64_qr", "image"}

// Pairing is the outcome of a pairing-code request. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Pairing struct {
	Kind     PairingKind
	Image    []byte
	MimeType string
	DataURI  string
	Reason   string
}

// QRCode returns the code as a data URI, or "" when Kind carries no code.
func (p Pairing) QRCode() string {
	switch p.Kind {
	case PairingQRImage:
		mimeType := p.MimeType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Image)
	case PairingQRDataURI:
		return p.DataURI
	default:
		return ""
	}
}

func paired() Pairing { return Pairing{Kind: PairingPaired} }

func pairingError(reason string) Pairing { return Pairing{Kind: PairingError, Reason: reason} }

func qrImage(data []byte, mimeType string) Pairing {
	return Pairing{Kind: PairingQRImage, Image: data, MimeType: mimeType}
}

// ParsePairingResponse decides what a pairing endpoint answered. The probe
// order is fixed: content type, then JSON, then the bare base64 heuristic.
func ParsePairingResponse(status int, contentType string, body []byte) Pairing {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if isSuccess(status) && strings.HasPrefix(mediaType, "image/") && len(body) > 0 {
		return qrImage(body, mediaType)
	}

	trimmed := bytes.TrimSpace(body)
	var payload any
	if len(trimmed) > 0 && json.Unmarshal(trimmed, &payload) == nil {
		return pairingFromJSON(status, payload)
	}

	text := string(trimmed)
	if Classify(text) == CodeAlreadyPaired {
		return paired()
	}
	if isSuccess(status) && len(text) > rawBase64Threshold && !strings.Contains(text, "{") {
		return pairingFromBase64(text)
	}
	if text == "" {
		text = http.StatusText(status)
	}
	return pairingError(text)
}

func pairingFromJSON(status int, payload any) Pairing {
	switch v := payload.(type) {
	case string:
		if Classify(v) == CodeAlreadyPaired {
			return paired()
		}
		if !isSuccess(status) {
			return pairingError(v)
		}
		return pairingFromValue(v)
	case map[string]any:
		text := pickString(v, "error", "message", "detail")
		if Classify(text) == CodeAlreadyPaired {
			return paired()
		}
		if connected, ok := v["connected"].(bool); ok && connected {
			return paired()
		}
		if qr := pickString(v, qrKeys...); qr != "" && isSuccess(status) {
			return pairingFromValue(qr)
		}
		if text == "" {
			text = http.StatusText(status)
		}
		if text == "" {
			text = "pairing response carried no QR code"
		}
		return pairingError(text)
	default:
		return pairingError("unexpected pairing response")
	}
}

// pairingFromValue handles a QR value found inside JSON: a data URI, a
// base64 image, or a raw pairing string that has to be rendered.
func pairingFromValue(v string) Pairing {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(strings.ToLower(v), "data:") {
		if !strings.Contains(v, ";base64,") {
			return pairingError("malformed QR data URI")
		}
		return Pairing{Kind: PairingQRDataURI, DataURI: v}
	}
	if data, ok := decodeBase64(v); ok {
		if mimeType := http.DetectContentType(data); strings.HasPrefix(mimeType, "image/") {
			return qrImage(data, mimeType)
		}
	}
	png, err := qrcode.Encode(v, qrcode.Medium, 256)
	if err != nil {
		return pairingError("unable to render pairing code: " + err.Error())
	}
	return qrImage(png, "image/png")
}

func pairingFromBase64(text string) Pairing {
	if strings.HasPrefix(strings.ToLower(text), "data:") {
		return Pairing{Kind: PairingQRDataURI, DataURI: text}
	}
	data, ok := decodeBase64(text)
	if !ok {
		return pairingError("pairing response is not valid base64")
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return qrImage(data, mimeType)
}

func decodeBase64(v string) ([]byte, bool) {
	v = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, v)
	if v == "" {
		return nil, false
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(v); err == nil && len(data) > 0 {
			return data, true
		}
	}
	return nil, false
}
