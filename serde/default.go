package serde

import (
	"encoding/xml"
	"fmt"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/gorilla/schema"
)

// DefaultSerializer is the stock Serializer covering JSON, XML,
// form-urlencoded, and plain text. The zero value is not usable; create
// with NewSerializer.
type DefaultSerializer struct {
	formEncoder *schema.Encoder
	formDecoder *schema.Decoder
}

// NewSerializer creates a DefaultSerializer.
func NewSerializer() *DefaultSerializer {
	enc := schema.NewEncoder()
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return &DefaultSerializer{
		formEncoder: enc,
		formDecoder: dec,
	}
}

// Marshal implements Serializer.
func (s *DefaultSerializer) Marshal(v any, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingJSON:
		return json.Marshal(v)
	case EncodingXML:
		return xml.Marshal(v)
	case EncodingForm:
		return s.marshalForm(v)
	case EncodingText:
		switch t := v.(type) {
		case string:
			return []byte(t), nil
		case []byte:
			return t, nil
		case fmt.Stringer:
			return []byte(t.String()), nil
		default:
			return nil, fmt.Errorf("%w: cannot encode %T as text", ErrUnsupportedEncoding, v)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEncoding, enc)
	}
}

// Unmarshal implements Serializer.
func (s *DefaultSerializer) Unmarshal(data []byte, v any, enc Encoding) error {
	switch enc {
	case EncodingJSON:
		return json.Unmarshal(data, v)
	case EncodingXML:
		return xml.Unmarshal(data, v)
	case EncodingForm:
		return s.unmarshalForm(data, v)
	case EncodingText:
		switch t := v.(type) {
		case *string:
			*t = string(data)
			return nil
		case *[]byte:
			*t = append((*t)[:0], data...)
			return nil
		default:
			return fmt.Errorf("%w: cannot decode text into %T", ErrUnsupportedEncoding, v)
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedEncoding, enc)
	}
}

func (s *DefaultSerializer) marshalForm(v any) ([]byte, error) {
	values := url.Values{}
	switch t := v.(type) {
	case url.Values:
		values = t
	case map[string]string:
		for k, val := range t {
			values.Set(k, val)
		}
	default:
		if err := s.formEncoder.Encode(v, values); err != nil {
			return nil, err
		}
	}
	return []byte(values.Encode()), nil
}

func (s *DefaultSerializer) unmarshalForm(data []byte, v any) error {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case *url.Values:
		*t = values
		return nil
	case *map[string]string:
		m := make(map[string]string, len(values))
		for k := range values {
			m[k] = values.Get(k)
		}
		*t = m
		return nil
	default:
		return s.formDecoder.Decode(v, values)
	}
}
