package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

// ParseStatusResponse normalizes the gateway's status answer. Connected is
// signalled by a boolean "connected", a "status"/"state" string equal to
// CONNECTED, or error text saying the session is already connected. Text
// saying the device must be connected first yields a pending status, not an
// error.
func ParseStatusResponse(status int, body []byte) (Status, error) {
	trimmed := bytes.TrimSpace(body)

	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		text := string(trimmed)
		switch Classify(text) {
		case CodeAlreadyPaired:
			return Status{Connected: true}, nil
		case CodeNotPaired:
			return Status{Pending: true}, nil
		}
		if text == "" {
			text = http.StatusText(status)
		}
		return Status{}, &Error{Code: Classify(text), Status: status, Message: text}
	}

	var st Status
	if connected, ok := payload["connected"].(bool); ok && connected {
		st.Connected = true
	}
	if isConnectedState(pickString(payload, "status", "state")) {
		st.Connected = true
	}

	text := pickString(payload, "error", "message")
	switch Classify(text) {
	case CodeAlreadyPaired:
		st.Connected = true
	case CodeNotPaired:
	default:
		if !isSuccess(status) && !st.Connected {
			if text == "" {
				text = http.StatusText(status)
			}
			return Status{}, &Error{Code: Classify(text), Status: status, Message: text}
		}
	}

	st.Pending = !st.Connected
	st.Phone = NormalizePhone(pickString(payload, "phone", "number", "wid"))
	st.DisplayName = pickString(payload, "name", "pushname", "displayName")
	return st, nil
}

func isConnectedState(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "CONNECTED") || strings.EqualFold(s, "open")
}
