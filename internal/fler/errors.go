package fler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// PromotionUnavailable is the message the API returns from the top action
// once the account has used up its current promotion quota.
const PromotionUnavailable = "Topování není dostupné"

// TransportError is a failure to reach the server or read its response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is returned when the response body is not valid JSON or does
// not have the expected shape. Body carries the raw response for diagnostics.
type ProtocolError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProtocolError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("unparseable response (HTTP %d): %v: %s", e.StatusCode, e.Err, body)
	}
	return fmt.Sprintf("unparseable response (HTTP %d): %s", e.StatusCode, body)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// APIError is an application error reported by the Fler API in the body.
type APIError struct {
	Message    string
	Code       int
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fler API error: %s, error_number=%d", e.Message, e.Code)
}

// QuotaExhausted reports whether the error is the promotion-unavailable
// signal returned once the topping quota has been used up.
func (e *APIError) QuotaExhausted() bool {
	return e.Message == PromotionUnavailable
}

// IsPromotionUnavailable reports whether err carries the quota-exhausted
// signal from the top action.
func IsPromotionUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.QuotaExhausted()
}

// ErrorMessage is the "error" member of an error payload. The API sends
// either a single string or a list of strings; both collapse to one
// effective message, the first element of a list.
type ErrorMessage struct {
	single   string
	multiple []string
	set      bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *ErrorMessage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*m = ErrorMessage{set: truthy(data)}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &m.single)
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		for _, item := range list {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				s = string(item)
			}
			m.multiple = append(m.multiple, s)
		}
		return nil
	case 'f':
		// "error": false is how some endpoints say "no error".
		return nil
	default:
		m.single = string(data)
		return nil
	}
}

// Text returns the effective message.
func (m ErrorMessage) Text() string {
	if len(m.multiple) > 0 {
		return m.multiple[0]
	}
	return m.single
}

// Set reports whether the member marks an error: a non-empty string, list
// or object, true, or a non-zero number.
func (m ErrorMessage) Set() bool {
	return m.set
}

// truthy reports whether a raw JSON value is non-empty and non-zero.
func truthy(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return true
		}
		return s != ""
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return true
		}
		return len(list) > 0
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return true
		}
		return len(obj) > 0
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err != nil || f != 0
	}
}

type errorPayload struct {
	Error       ErrorMessage    `json:"error"`
	ErrorNumber json.RawMessage `json:"error_number"`
}

// checkError inspects a valid JSON body for an application error. Only
// objects can carry one; a truthy "error" or "error_number" member marks it.
// A non-numeric error_number is kept in the message with Code 0.
func checkError(statusCode int, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var p errorPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return &ProtocolError{StatusCode: statusCode, Body: string(body), Err: err}
	}

	numberSet := truthy(p.ErrorNumber)
	if !p.Error.Set() && !numberSet {
		return nil
	}

	msg := p.Error.Text()
	var code domain.Number
	if numberSet {
		if err := code.UnmarshalJSON(p.ErrorNumber); err != nil {
			code = 0
			raw := strings.Trim(string(bytes.TrimSpace(p.ErrorNumber)), `"`)
			if msg == "" {
				msg = raw
			} else {
				msg += " (" + raw + ")"
			}
		}
	}

	return &APIError{Message: msg, Code: int(code), StatusCode: statusCode}
}
