package state

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Serializer handles serialization/deserialization.
type Serializer[T any] interface {
	Serialize(value T) ([]byte, error)
	Deserialize(data []byte) (T, error)
}

// JSONSerializer stores values as JSON. Used where the stored format must stay
// readable, e.g. wizard drafts.
type JSONSerializer[T any] struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer[T any]() *JSONSerializer[T] {
	return &JSONSerializer[T]{}
}

func (s *JSONSerializer[T]) Serialize(value T) ([]byte, error) {
	if s.Pretty {
		return json.MarshalIndent(value, "", "  ")
	}
	return json.Marshal(value)
}

func (s *JSONSerializer[T]) Deserialize(data []byte) (T, error) {
	var value T
	if len(data) == 0 {
		return value, ErrInvalidData
	}
	err := json.Unmarshal(data, &value)
	return value, err
}

// MsgPackSerializer stores values as MessagePack.
type MsgPackSerializer[T any] struct{}

// NewMsgPackSerializer creates a new MessagePack serializer.
func NewMsgPackSerializer[T any]() *MsgPackSerializer[T] {
	return &MsgPackSerializer[T]{}
}

func (s *MsgPackSerializer[T]) Serialize(value T) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (s *MsgPackSerializer[T]) Deserialize(data []byte) (T, error) {
	var value T
	if len(data) == 0 {
		return value, ErrInvalidData
	}
	err := msgpack.Unmarshal(data, &value)
	return value, err
}
