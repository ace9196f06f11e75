// Package protocol defines the compact JSON frames exchanged between a
// live session and its client: hello, event, patch, error, and reload.
package protocol

import (
	"encoding/json"

	"github.com/loom-ui/loom/internal/errors"
)

// Kind identifies a frame type.
type Kind string

const (
	// KindHello is the first server frame: session id plus full HTML.
	KindHello Kind = "hello"

	// KindEvent is a client interaction addressed to a node id.
	KindEvent Kind = "event"

	// KindPatch carries re-rendered HTML after a loop turn.
	KindPatch Kind = "patch"

	// KindError reports a failed event or malformed frame.
	KindError Kind = "error"

	// KindReload asks the client to reload, used by the dev watcher.
	KindReload Kind = "reload"
)

// MaxFrameSize bounds a decoded frame.
const MaxFrameSize = 1 << 20

// Frame is the single wire shape; which fields are set depends on Kind.
type Frame struct {
	Kind    Kind           `json:"kind"`
	Session string         `json:"session,omitempty"`
	Node    string         `json:"node,omitempty"`
	Event   string         `json:"event,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	HTML    string         `json:"html,omitempty"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Hello builds the session-opening frame.
func Hello(sessionID, html string) Frame {
	return Frame{Kind: KindHello, Session: sessionID, HTML: html}
}

// Patch builds a re-render frame.
func Patch(html string) Frame {
	return Frame{Kind: KindPatch, HTML: html}
}

// Error builds an error frame from a structured error.
func Error(err error) Frame {
	f := Frame{Kind: KindError, Message: err.Error()}
	var le *errors.Error
	if errors.As(err, &le) {
		f.Code = le.Code
		f.Message = le.Message
	}
	return f
}

// Reload builds the dev-reload frame.
func Reload() Frame {
	return Frame{Kind: KindReload}
}

// Encode serializes a frame.
func Encode(f Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, errors.New("L401").Wrap(err)
	}
	return data, nil
}

// Decode parses and validates one frame.
func Decode(data []byte) (Frame, error) {
	if len(data) > MaxFrameSize {
		return Frame{}, errors.New("L401").
			WithDetail("frame is %d bytes, limit %d", len(data), MaxFrameSize)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, errors.New("L401").Wrap(err)
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate checks the fields required by the frame's kind.
func (f Frame) Validate() error {
	switch f.Kind {
	case KindHello, KindPatch, KindError, KindReload:
		return nil
	case KindEvent:
		if f.Node == "" {
			return errors.New("L401").WithDetail("event frame without node")
		}
		if f.Event == "" {
			return errors.New("L401").WithDetail("event frame without event type")
		}
		return nil
	default:
		return errors.New("L401").WithDetail("unknown kind %q", f.Kind)
	}
}
