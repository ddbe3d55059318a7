package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kamilpajak/nutrilens/internal/vision"
)

// ReasonPrimaryError is the meta reason attached to fallback results.
const ReasonPrimaryError = "primary_provider_error"

// Meta describes where a successful result came from.
type Meta struct {
	Provider       string `json:"provider"`
	Fallback       bool   `json:"fallback"`
	Reason         string `json:"reason,omitempty"`
	OriginalStatus int    `json:"originalStatus,omitempty"`
}

// SuccessBody is the JSON body of a successful analysis.
type SuccessBody struct {
	Success bool                   `json:"success"`
	Data    *vision.AnalysisResult `json:"data"`
	Meta    Meta                   `json:"meta"`
}

// FailureBody is the JSON body of a failed analysis.
type FailureBody struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error"`
	Code      string     `json:"code"`
	Retryable bool       `json:"retryable"`
	Details   string     `json:"details,omitempty"`
	Debug     *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo exposes the underlying failure. Only set outside production.
type DebugInfo struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Stack   string `json:"stack"` // cause chain, outermost first
}

// Envelope is the response to one analysis request. Exactly one of Success
// and Failure is set.
type Envelope struct {
	Status  int
	Success *SuccessBody
	Failure *FailureBody
}

// OK reports whether the envelope carries a result.
func (e *Envelope) OK() bool {
	return e.Success != nil
}

// MarshalJSON renders whichever body is set.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	if e.Success != nil {
		return json.Marshal(e.Success)
	}
	return json.Marshal(e.Failure)
}

func successEnvelope(res *vision.AnalysisResult, meta Meta) *Envelope {
	return &Envelope{
		Status:  http.StatusOK,
		Success: &SuccessBody{Success: true, Data: res, Meta: meta},
	}
}

func failureEnvelope(c *ClassifiedError, withDebug bool) *Envelope {
	body := &FailureBody{
		Error:     c.Message,
		Code:      c.Code,
		Retryable: c.Retryable,
		Details:   c.Details,
	}
	if withDebug {
		msg := c.Message
		if c.Err != nil {
			msg = c.Err.Error()
		}
		body.Debug = &DebugInfo{
			Name:    string(c.Kind),
			Message: msg,
			Status:  c.Status,
			Stack:   causeChain(c.Err),
		}
	}
	return &Envelope{Status: c.Status, Failure: body}
}

// causeChain lists each error in err's Unwrap chain as "type: message", one
// per line.
func causeChain(err error) string {
	var b strings.Builder
	for ; err != nil; err = errors.Unwrap(err) {
		fmt.Fprintf(&b, "%T: %s\n", err, err.Error())
	}
	return b.String()
}
