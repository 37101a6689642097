package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrMalformedDataURI = errors.New("malformed data URI")

// DataURI is a parsed RFC 2397 data: URI.
type DataURI struct {
	MediaType string
	Data      []byte
}

// ParseDataURI decodes both base64 and percent-encoded payloads.
func ParseDataURI(uri string) (*DataURI, error) {
	if len(uri) < 5 || !strings.EqualFold(uri[:5], "data:") {
		return nil, fmt.Errorf("%w: missing data: scheme", ErrMalformedDataURI)
	}
	rest := uri[5:]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: missing comma", ErrMalformedDataURI)
	}
	header, payload := rest[:comma], rest[comma+1:]

	isBase64 := false
	mediaType := "text/plain"
	params := strings.Split(header, ";")
	if params[0] != "" {
		mediaType = strings.ToLower(params[0])
	}
	for _, p := range params[1:] {
		if strings.EqualFold(p, "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := decodeBase64(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
		}
		data = []byte(unescaped)
	}

	return &DataURI{MediaType: mediaType, Data: data}, nil
}

// EncodeDataURI builds a base64 data: URI.
func EncodeDataURI(mediaType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mediaType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	// Some encoders drop padding or use the URL alphabet.
	trimmed := strings.TrimRight(payload, "=")
	if data, err := base64.RawStdEncoding.DecodeString(trimmed); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(trimmed)
}
