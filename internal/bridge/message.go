package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed signals a frame that does not decode into a known message.
var ErrMalformed = errors.New("malformed bridge message")

// Type discriminates bridge messages on the wire.
type Type string

const (
	// TypeReady is sent once by the render runtime after a successful bootstrap.
	TypeReady Type = "ready"
	// TypeError reports a fatal runtime failure to the host.
	TypeError Type = "error"
	// TypeLog carries an informational event; delivery is best-effort.
	TypeLog Type = "log"
	// TypeAudioState flows host to runtime and toggles the talking animation.
	TypeAudioState Type = "audioState"
)

// Message is the tagged union exchanged across the bridge. Ready, Error and
// Log flow runtime to host; AudioState flows host to runtime.
type Message struct {
	Type      Type      `json:"type"`
	Message   string    `json:"message,omitempty"`
	IsPlaying bool      `json:"isPlaying,omitempty"`
	AudioData []float64 `json:"audioData,omitempty"`
}

// Ready constructs the readiness message.
func Ready() Message {
	return Message{Type: TypeReady}
}

// Errorf constructs an error message.
func Errorf(format string, args ...any) Message {
	return Message{Type: TypeError, Message: fmt.Sprintf(format, args...)}
}

// Logf constructs a log message.
func Logf(format string, args ...any) Message {
	return Message{Type: TypeLog, Message: fmt.Sprintf(format, args...)}
}

// AudioState constructs the playback-state message with optional amplitude
// samples for the runtime to use as it sees fit.
func AudioState(playing bool, samples []float64) Message {
	return Message{Type: TypeAudioState, IsPlaying: playing, AudioData: samples}
}

// Encode serializes a message for the wire.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode bridge message: %w", err)
	}
	return data, nil
}

// Decode parses a wire frame. Frames that are not JSON or carry an unknown
// type come back as ErrMalformed so readers can drop them without crashing.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch m.Type {
	case TypeReady, TypeError, TypeLog, TypeAudioState:
		return m, nil
	default:
		return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, m.Type)
	}
}
