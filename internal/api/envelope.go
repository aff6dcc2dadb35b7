package api

import (
	"encoding/json"
	"fmt"

	"github.com/juju/errors"
)

// Envelope wraps every backend response.
type Envelope[T any] struct {
	ResponseSuccessful bool   `json:"responseSuccessful"`
	ResponseMessage    string `json:"responseMessage"`
	ResponseBody       T      `json:"responseBody"`
}

// FallbackMessage is shown when the backend did not explain a failure.
const FallbackMessage = "Something went wrong. Please try again."

// Error is a failed request: a non-2xx status or responseSuccessful=false.
type Error struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, msg)
}

// Unwrap maps the HTTP status onto a juju error kind so callers can use
// errors.Is(err, errors.NotFound) and friends.
func (e *Error) Unwrap() error {
	switch e.Status {
	case 400, 422:
		return errors.BadRequest
	case 401:
		return errors.Unauthorized
	case 403:
		return errors.Forbidden
	case 404:
		return errors.NotFound
	case 405:
		return errors.MethodNotAllowed
	case 409:
		return errors.AlreadyExists
	case 408, 504:
		return errors.Timeout
	}
	return nil
}

// Message returns the server-provided message carried by err, or the generic
// fallback when there is none.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}

// decodeEnvelope unpacks data into out. It never fails on an unsuccessful
// envelope: the caller checks ResponseSuccessful.
func decodeEnvelope(data []byte, out any) (Envelope[json.RawMessage], error) {
	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.ResponseSuccessful || out == nil || len(env.ResponseBody) == 0 || string(env.ResponseBody) == "null" {
		return env, nil
	}
	if err := json.Unmarshal(env.ResponseBody, out); err != nil {
		return env, fmt.Errorf("failed to decode response body: %w", err)
	}
	return env, nil
}
