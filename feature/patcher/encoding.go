package patcher

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrUndecodable is reported when no configured encoding reads a file losslessly.
var ErrUndecodable = errors.New("content cannot be decoded losslessly")

// codec is one resolved entry of the encoding list.
type codec struct {
	name string
	enc  encoding.Encoding // nil for utf-8
}

func resolveCodecs(names []string) ([]codec, error) {
	if len(names) == 0 {
		names = []string{"utf-8"}
	}

	codecs := make([]codec, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == "utf-8" || name == "utf8" {
			codecs = append(codecs, codec{name: "utf-8"})
			continue
		}
		enc, err := ianaindex.IANA.Encoding(name)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
		}
		if enc == nil {
			return nil, fmt.Errorf("encoding %q is not supported", name)
		}
		codecs = append(codecs, codec{name: name, enc: enc})
	}
	return codecs, nil
}

// decode tries each codec in order and returns the first lossless reading.
func decode(codecs []codec, raw []byte) (codec, string, error) {
	for _, c := range codecs {
		if c.enc == nil {
			if utf8.Valid(raw) {
				return c, string(raw), nil
			}
			continue
		}

		text, err := c.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		back, err := c.enc.NewEncoder().Bytes(text)
		if err != nil || !bytes.Equal(back, raw) {
			continue
		}
		return c, string(text), nil
	}
	return codec{}, "", ErrUndecodable
}

func (c codec) encode(content string) ([]byte, error) {
	if c.enc == nil {
		return []byte(content), nil
	}
	out, err := c.enc.NewEncoder().String(content)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode as %s: %w", c.name, err)
	}
	return []byte(out), nil
}
