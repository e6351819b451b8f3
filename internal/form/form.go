// Package form flattens request bodies into string fields.
package form

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strconv"
)

var (
	ErrInvalidBody      = errors.New("invalid post data")
	ErrInvalidMultipart = errors.New("invalid multipart/form-data request")
)

const (
	contentTypeURLEncoded = "application/x-www-form-urlencoded"
	contentTypeMultipart  = "multipart/form-data"
	contentTypeJSON       = "application/json"
)

// Decode parses body according to contentType. isBase64 marks a body that
// arrived base64 encoded and must be decoded first. Only string-valued fields
// survive; JSON numbers and booleans are rendered as text.
func Decode(contentType string, body []byte, isBase64 bool) (map[string]string, error) {
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrInvalidBody, err)
		}
		body = decoded
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: content type %q", ErrInvalidBody, contentType)
	}

	switch mediaType {
	case contentTypeMultipart:
		boundary := params["boundary"]
		if boundary == "" {
			return nil, ErrInvalidMultipart
		}
		if len(body) == 0 {
			return nil, ErrInvalidBody
		}
		return decodeMultipart(body, boundary)
	case contentTypeURLEncoded:
		if len(body) == 0 {
			return nil, ErrInvalidBody
		}
		return decodeURLEncoded(body)
	case contentTypeJSON:
		if len(body) == 0 {
			return nil, ErrInvalidBody
		}
		return decodeJSON(body)
	default:
		return nil, fmt.Errorf("%w: content type %q", ErrInvalidBody, mediaType)
	}
}

func decodeURLEncoded(body []byte) (map[string]string, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	data := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			data[k] = v[0]
		}
	}
	return data, nil
}

func decodeMultipart(body []byte, boundary string) (map[string]string, error) {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	data := make(map[string]string)

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMultipart, err)
		}

		name := part.FormName()
		if name == "" || part.FileName() != "" {
			part.Close()
			continue
		}

		value, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMultipart, err)
		}
		if len(value) > 0 {
			data[name] = string(value)
		}
	}

	return data, nil
}

func decodeJSON(body []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if raw == nil {
		return nil, ErrInvalidBody
	}

	data := make(map[string]string, len(raw))
	for k, v := range raw {
		var field any
		if err := json.Unmarshal(v, &field); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}

		switch val := field.(type) {
		case string:
			data[k] = val
		case float64:
			data[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			data[k] = strconv.FormatBool(val)
		}
	}
	return data, nil
}
