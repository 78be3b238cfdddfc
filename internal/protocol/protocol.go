// Package protocol defines the JSON messages exchanged over the signal socket.
// Every message is a flat object carrying a "type" discriminator.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/go-playground/validator/v10"
)

type Type string

const (
	TypeJoin           Type = "join"
	TypeJoined         Type = "joined"
	TypeCodeChange     Type = "code_change"
	TypeLanguageChange Type = "language_change"
	TypeSync           Type = "sync"
	TypeTogglePanel    Type = "toggle_panel"
	TypeDisconnected   Type = "disconnected"
	TypePing           Type = "ping"
	TypePong           Type = "pong"
	TypeWelcome        Type = "welcome"
)

var (
	ErrMalformed    = errors.New("malformed message")
	ErrTextTooLarge = errors.New("text too large")
)

type Envelope struct {
	Type Type `json:"type"`
}

// ParseType reads only the discriminator of a raw message.
func ParseType(data []byte) (Type, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env.Type, nil
}

// Decoder unmarshals client requests and rejects anything missing a
// required field before it can reach room state.
type Decoder struct {
	validate     *validator.Validate
	maxTextBytes int
}

func NewDecoder(maxTextBytes int) *Decoder {
	return &Decoder{validate: newValidator(), maxTextBytes: maxTextBytes}
}

// newValidator registers the domain limits as tags, so the boundary and the
// rooms agree on what a valid name is.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterAlias("roomid", fmt.Sprintf("required,max=%d", domain.MaxRoomIDLen))
	v.RegisterAlias("langid", fmt.Sprintf("required,max=%d", domain.MaxLanguageLen))
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return domain.ValidateUsername(fl.Field().String()) == nil
	})
	return v
}

func (d *Decoder) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := d.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if t, ok := v.(texter); ok && d.maxTextBytes > 0 {
		if n := len(t.text()); n > d.maxTextBytes {
			return fmt.Errorf("%w: %d bytes (limit %d)", ErrTextTooLarge, n, d.maxTextBytes)
		}
	}
	return nil
}

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
