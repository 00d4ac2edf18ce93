package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode marshals a server message to a JSON text frame.
func Encode(msg any) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("trying to encode nil message")
	}
	return json.Marshal(msg)
}

// Decode parses a client frame. The action discriminator must be present.
func Decode(b []byte) (ClientMessage, error) {
	if len(b) == 0 {
		return ClientMessage{}, fmt.Errorf("empty client frame")
	}
	var m ClientMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return ClientMessage{}, fmt.Errorf("decode client frame: %w", err)
	}
	if m.Action == "" {
		return ClientMessage{}, fmt.Errorf("client frame missing action")
	}
	return m, nil
}

// DecodeServer parses a server frame into the given message struct. Bots
// use this; they peek the type first via PeekType.
func DecodeServer[T any](b []byte) (T, error) {
	var out T
	if len(b) == 0 {
		return out, fmt.Errorf("empty server frame")
	}
	err := json.Unmarshal(b, &out)
	return out, err
}

// PeekType returns the "type" discriminator of a server frame.
func PeekType(b []byte) (string, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return "", fmt.Errorf("peek frame type: %w", err)
	}
	if probe.Type == "" {
		return "", fmt.Errorf("server frame missing type")
	}
	return probe.Type, nil
}
