package replication

import (
	"errors"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/moreevents/internal/trigger"
)

// Field numbers of the wire format. The value variants are nested messages
// whose own field 1 carries the value.
const (
	fieldBlockID   protowire.Number = 1
	fieldEventType protowire.Number = 2
	fieldEntityID  protowire.Number = 3
	fieldSlot      protowire.Number = 4
	fieldBool      protowire.Number = 10
	fieldFloat     protowire.Number = 20

	fieldValue protowire.Number = 1
)

// Marshal encodes m in protobuf wire format. Zero scalars are omitted.
func Marshal(m Message) []byte {
	var b []byte
	if m.BlockID != 0 {
		b = protowire.AppendTag(b, fieldBlockID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.BlockID))
	}
	if m.EventType != "" {
		b = protowire.AppendTag(b, fieldEventType, protowire.BytesType)
		b = protowire.AppendString(b, m.EventType)
	}
	if m.EntityID != 0 {
		b = protowire.AppendTag(b, fieldEntityID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.EntityID))
	}
	if m.Slot != 0 {
		b = protowire.AppendTag(b, fieldSlot, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Slot)))
	}

	var inner []byte
	switch m.Value.Kind {
	case KindBool:
		if m.Value.Flag.Known() {
			inner = protowire.AppendTag(inner, fieldValue, protowire.VarintType)
			inner = protowire.AppendVarint(inner, protowire.EncodeBool(m.Value.Flag.Bool()))
		}
		b = protowire.AppendTag(b, fieldBool, protowire.BytesType)
	default:
		if m.Value.Number != 0 {
			inner = protowire.AppendTag(inner, fieldValue, protowire.Fixed64Type)
			inner = protowire.AppendFixed64(inner, math.Float64bits(m.Value.Number))
		}
		b = protowire.AppendTag(b, fieldFloat, protowire.BytesType)
	}
	return protowire.AppendBytes(b, inner)
}

// Unmarshal decodes a payload produced by Marshal. Unknown fields are
// skipped. A float value may also arrive as a 32-bit float.
func Unmarshal(b []byte) (Message, error) {
	var (
		m        Message
		hasValue bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Message{}, &DecodeError{Code: ErrCodeTruncated, Err: protowire.ParseError(n)}
		}
		b = b[n:]

		switch num {
		case fieldBlockID, fieldEntityID, fieldSlot:
			if typ != protowire.VarintType {
				return Message{}, &DecodeError{Code: ErrCodeWireType, Field: int32(num)}
			}
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Message{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(num), Err: protowire.ParseError(n)}
			}
			b = b[n:]
			switch num {
			case fieldBlockID:
				m.BlockID = int64(v)
			case fieldEntityID:
				m.EntityID = int64(v)
			default:
				m.Slot = trigger.Slot(int32(v))
			}

		case fieldEventType:
			if typ != protowire.BytesType {
				return Message{}, &DecodeError{Code: ErrCodeWireType, Field: int32(num)}
			}
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return Message{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(num), Err: protowire.ParseError(n)}
			}
			b = b[n:]
			m.EventType = s

		case fieldBool, fieldFloat:
			if typ != protowire.BytesType {
				return Message{}, &DecodeError{Code: ErrCodeWireType, Field: int32(num)}
			}
			inner, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Message{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(num), Err: protowire.ParseError(n)}
			}
			b = b[n:]
			v, err := unmarshalValue(num, inner)
			if err != nil {
				return Message{}, err
			}
			m.Value = v
			hasValue = true

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Message{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(num), Err: protowire.ParseError(n)}
			}
			b = b[n:]
		}
	}

	if m.EventType == "" {
		return Message{}, &DecodeError{Code: ErrCodeNoEventType}
	}
	if !hasValue {
		return Message{}, &DecodeError{Code: ErrCodeNoValue}
	}
	return m, nil
}

func unmarshalValue(variant protowire.Number, b []byte) (Value, error) {
	v := Value{Kind: KindFloat}
	if variant == fieldBool {
		v = BoolValue(trigger.Unknown)
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Value{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(variant), Err: protowire.ParseError(n)}
		}
		b = b[n:]

		if num != fieldValue {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Value{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(variant), Err: protowire.ParseError(n)}
			}
			b = b[n:]
			continue
		}

		switch {
		case variant == fieldBool && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Value{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(variant), Err: protowire.ParseError(n)}
			}
			b = b[n:]
			v.Flag = trigger.TristateOf(protowire.DecodeBool(x))
		case variant == fieldFloat && typ == protowire.Fixed64Type:
			x, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Value{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(variant), Err: protowire.ParseError(n)}
			}
			b = b[n:]
			v.Number = math.Float64frombits(x)
		case variant == fieldFloat && typ == protowire.Fixed32Type:
			x, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return Value{}, &DecodeError{Code: ErrCodeTruncated, Field: int32(variant), Err: protowire.ParseError(n)}
			}
			b = b[n:]
			v.Number = float64(math.Float32frombits(x))
		default:
			return Value{}, &DecodeError{Code: ErrCodeWireType, Field: int32(variant), Err: errors.New("value field")}
		}
	}
	return v, nil
}
