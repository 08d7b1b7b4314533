package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type MessageType string

const (
	Login       MessageType = "LOGIN"
	LoginOK     MessageType = "LOGIN_OK"
	LoginError  MessageType = "LOGIN_ERROR"
	RecordsSync MessageType = "RECORDS_SYNC"
	JoinQueue   MessageType = "JOIN_QUEUE"
	QueueStatus MessageType = "QUEUE_STATUS"
	StartPve    MessageType = "START_PVE"
	GameStart   MessageType = "GAME_START"
	MakeMove    MessageType = "MAKE_MOVE"
	GameState   MessageType = "GAME_STATE"
	Timeout     MessageType = "TIMEOUT"
	RoundEnd    MessageType = "ROUND_END"
	Error       MessageType = "ERROR"
)

var knownTypes = map[MessageType]struct{}{
	Login:       {},
	LoginOK:     {},
	LoginError:  {},
	RecordsSync: {},
	JoinQueue:   {},
	QueueStatus: {},
	StartPve:    {},
	GameStart:   {},
	MakeMove:    {},
	GameState:   {},
	Timeout:     {},
	RoundEnd:    {},
	Error:       {},
}

// IsKnown reports whether t belongs to the message catalogue.
func IsKnown(t MessageType) bool {
	_, ok := knownTypes[t]
	return ok
}

var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrUnknownType       = errors.New("unknown message type")
)

// Envelope is one protocol unit. Payload keeps the raw JSON object so call
// sites can pull only the fields they need.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var emptyObject = json.RawMessage("{}")

// Encode renders a single line (without the trailing newline). A nil payload
// is sent as an empty object.
func Encode(t MessageType, payload any) ([]byte, error) {
	raw := emptyObject
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		if len(p) > 0 {
			raw = p
		}
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		raw = b
	}

	// json.Marshal escapes control characters, so the output never carries a
	// raw newline; compacting guards pre-encoded RawMessage payloads.
	if bytes.ContainsAny(raw, "\r\n") {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		raw = buf.Bytes()
	}

	return json.Marshal(Envelope{Type: t, Payload: raw})
}

// Decode parses one line. It never panics; any malformed input or a type
// outside the catalogue is reported as an error and the line should be dropped.
func Decode(line []byte) (Envelope, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Envelope{}, ErrMalformedEnvelope
	}

	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}
	if !IsKnown(env.Type) {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if len(env.Payload) == 0 || bytes.Equal(env.Payload, []byte("null")) {
		env.Payload = emptyObject
	}
	return env, nil
}

// Fields gives targeted access to the top-level keys of a payload object.
type Fields map[string]json.RawMessage

// Fields extracts the payload keys. A payload that is not an object yields an
// empty set, so every lookup reports a missing field.
func (e Envelope) Fields() Fields {
	f := Fields{}
	if err := json.Unmarshal(e.Payload, &f); err != nil {
		return Fields{}
	}
	return f
}

func (f Fields) String(key string) (string, bool) {
	raw, ok := f[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Int accepts JSON numbers and numeric strings ("2").
func (f Fields) Int(key string) (int, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		n = json.Number(s)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func (f Fields) Bool(key string) (bool, bool) {
	raw, ok := f[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}
