package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// FromJSON parses a JSON document into a Value. Object key order is
// preserved, and integers are kept distinct from floats.
func FromJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readJSON(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrParse)
	}
	return v, nil
}

func readJSON(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return readJSONToken(dec, tok)
}

func readJSONToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return FromBool(t), nil
	case string:
		return FromString(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return FromInt(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return FromFloat(f), nil
	case json.Delim:
		switch t {
		case '[':
			var items []*Value
			for dec.More() {
				item, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return FromList(items), nil
		case '{':
			m := &Map{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := m.Get(key); dup {
					return nil, fmt.Errorf("duplicate object key %q", key)
				}
				m.Pairs = append(m.Pairs, Pair{Key: key, Val: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return FromMap(m), nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// ToJSON renders v as compact JSON, emitting map keys in insertion order.
func (v *Value) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v *Value) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	switch v.Kind {
	case NullKind:
		buf.WriteString("null")
	case BoolKind:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case IntKind:
		buf.WriteString(strconv.FormatInt(v.Int, 10))
	case FloatKind:
		d, err := json.Marshal(v.Float)
		if err != nil {
			return err
		}
		buf.Write(d)
	case StringKind:
		d, err := json.Marshal(v.Str)
		if err != nil {
			return err
		}
		buf.Write(d)
	case ListKind:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case MapKind:
		buf.WriteByte('{')
		for i := range v.Map.Pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			d, err := json.Marshal(v.Map.Pairs[i].Key)
			if err != nil {
				return err
			}
			buf.Write(d)
			buf.WriteByte(':')
			if err := writeJSON(buf, v.Map.Pairs[i].Val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode kind %s", v.Kind)
	}
	return nil
}
