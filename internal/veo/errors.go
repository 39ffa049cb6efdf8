package veo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// QuotaExceededCode is the code the service reports when the API quota is used up.
const QuotaExceededCode = http.StatusTooManyRequests

// ErrEmptyResult is returned when a job completes without any generated video.
var ErrEmptyResult = errors.New("veo: no videos were generated")

const emptyResultMessage = "No videos were generated. Please try a different prompt."

// RemoteServiceError is a structured error reported by the remote service.
type RemoteServiceError struct {
	Code    int
	Status  string
	Message string
}

func (e *RemoteServiceError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("veo: %d %s: %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("veo: %d: %s", e.Code, e.Message)
}

// QuotaExceeded reports whether the service rejected the call for quota.
func (e *RemoteServiceError) QuotaExceeded() bool {
	return e.Code == QuotaExceededCode
}

// Kind groups failures by how they are shown to the user.
type Kind int

const (
	KindGeneric Kind = iota
	KindRemote
	KindQuota
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindQuota:
		return "quota"
	case KindEmpty:
		return "empty"
	default:
		return "generic"
	}
}

// Failure is an error reduced to what a UI needs to render it.
type Failure struct {
	Kind    Kind
	Code    int
	Message string
}

// Status is the status line text for the failure.
func (f Failure) Status() string {
	if f.Kind == KindQuota {
		return "API quota exceeded."
	}
	return "Error: " + f.Message
}

// Quota reports whether the quota banner should be displayed.
func (f Failure) Quota() bool {
	return f.Kind == KindQuota
}

// envelope is the JSON error shape Google APIs embed in error messages.
type envelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Classify maps any error returned by a generation to a Failure.
func Classify(err error) Failure {
	var rerr *RemoteServiceError
	switch {
	case err == nil:
		return Failure{}
	case errors.As(err, &rerr):
		return remoteFailure(rerr.Code, rerr.Message)
	case errors.Is(err, ErrEmptyResult):
		return Failure{Kind: KindEmpty, Message: emptyResultMessage}
	}
	var env envelope
	if json.Unmarshal([]byte(err.Error()), &env) == nil && env.Error != nil {
		return remoteFailure(env.Error.Code, env.Error.Message)
	}
	return Failure{Kind: KindGeneric, Message: err.Error()}
}

func remoteFailure(code int, msg string) Failure {
	if code == QuotaExceededCode {
		return Failure{Kind: KindQuota, Code: code, Message: msg}
	}
	return Failure{Kind: KindRemote, Code: code, Message: msg}
}

// operationError converts the error object of a finished operation.
func operationError(m map[string]any) error {
	if len(m) == 0 {
		return nil
	}
	rerr := &RemoteServiceError{}
	switch code := m["code"].(type) {
	case float64:
		rerr.Code = int(code)
	case int:
		rerr.Code = code
	case int32:
		rerr.Code = int(code)
	case int64:
		rerr.Code = int(code)
	}
	if msg, ok := m["message"].(string); ok {
		rerr.Message = msg
	}
	if status, ok := m["status"].(string); ok {
		rerr.Status = status
	}
	if rerr.Message == "" {
		rerr.Message = "video generation failed"
	}
	return rerr
}
