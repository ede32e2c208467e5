package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConnected is returned when a client is used outside of its Open/Close scope.
	ErrNotConnected = errors.New("not connected")
	// ErrUnresolvedProduct is returned when a product has no exchange metadata.
	ErrUnresolvedProduct = errors.New("product has no exchange metadata")
)

// ClientError is a 4xx response from the exchange REST API.
type ClientError struct {
	StatusCode int
	// Code is the exchange error code, nil when absent.
	Code    *string
	Message string
	Header  http.Header
	Data    json.RawMessage
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.StatusCode, e.Message)
}

// ServerError is a 5xx response from the exchange REST API.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// newClientError builds a ClientError from a raw 4xx body. Bodies that are not
// a JSON object keep the raw text as message.
func newClientError(status int, header http.Header, body []byte) *ClientError {
	cerr := &ClientError{
		StatusCode: status,
		Message:    string(body),
		Header:     header,
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return cerr
	}

	if raw, ok := fields["code"]; ok {
		var code any
		if err := json.Unmarshal(raw, &code); err == nil && code != nil {
			var s string
			if str, ok := code.(string); ok {
				s = str
			} else {
				s = string(raw)
			}
			cerr.Code = &s
		}
	}

	if raw, ok := fields["msg"]; ok {
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			cerr.Message = msg
		}
	}

	if raw, ok := fields["data"]; ok && string(raw) != "null" {
		cerr.Data = raw
	}

	return cerr
}
