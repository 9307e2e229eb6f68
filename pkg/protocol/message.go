// Package protocol defines the wire protocol between the dashboard and the
// browser client.
package protocol

// Client events.
const (
	EventJoin      = "join"
	EventLeave     = "leave"
	EventHeartbeat = "heartbeat"
)

// Server events.
const (
	EventReply    = "reply"
	EventRender   = "render"
	EventRedirect = "redirect"
	EventFocus    = "focus"
	EventError    = "error"
)

// Message represents a protocol message exchanged between client and server.
type Message struct {
	// Ref is a correlation ID for request/response matching
	Ref string `json:"ref,omitempty" msgpack:"ref,omitempty"`

	// Topic is the channel this message belongs to (e.g., "lv:socket-id")
	Topic string `json:"topic" msgpack:"topic"`

	// Event is the specific event name (e.g., "next", "render")
	Event string `json:"event" msgpack:"event"`

	// Payload contains the message data
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// NewMessage creates a new message with the given parameters.
func NewMessage(topic, event string, payload map[string]any) *Message {
	if payload == nil {
		payload = make(map[string]any)
	}
	return &Message{
		Topic:   topic,
		Event:   event,
		Payload: payload,
	}
}

// WithRef adds a reference ID to the message.
func (m *Message) WithRef(ref string) *Message {
	m.Ref = ref
	return m
}

// GetPayloadString retrieves a string value from the payload.
func (m *Message) GetPayloadString(key string) string {
	if v, ok := m.Payload[key].(string); ok {
		return v
	}
	return ""
}

// GetPayloadInt retrieves an int value from the payload. Numeric strings
// are accepted since DOM attributes are strings.
func (m *Message) GetPayloadInt(key string) int {
	return PayloadInt(m.Payload, key)
}

// PayloadInt reads an integer from an event payload.
func PayloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n := 0
		for _, c := range v {
			if c < '0' || c > '9' {
				return 0
			}
			n = n*10 + int(c-'0')
		}
		return n
	default:
		return 0
	}
}

// PayloadString reads a string from an event payload.
func PayloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// ReplyMessage creates a reply message.
func ReplyMessage(ref, topic, status string, response map[string]any) *Message {
	return NewMessage(topic, EventReply, map[string]any{
		"status":   status,
		"response": response,
	}).WithRef(ref)
}

// OkReply creates a successful reply message.
func OkReply(ref, topic string, response map[string]any) *Message {
	return ReplyMessage(ref, topic, "ok", response)
}

// ErrorMessage creates an error event carrying reason.
func ErrorMessage(ref, topic, reason string) *Message {
	return NewMessage(topic, EventError, map[string]any{"reason": reason}).WithRef(ref)
}

// RenderMessage carries a full re-render of the live root.
func RenderMessage(topic, html string) *Message {
	return NewMessage(topic, EventRender, map[string]any{"html": html})
}

// RedirectMessage asks the client to navigate to a new location.
func RedirectMessage(topic, to string) *Message {
	return NewMessage(topic, EventRedirect, map[string]any{"to": to})
}

// FocusMessage asks the client to focus the named input.
func FocusMessage(topic, field string) *Message {
	return NewMessage(topic, EventFocus, map[string]any{"field": field})
}
