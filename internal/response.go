package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Content types.
const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

// encodeFailureBody is sent when a JSON payload cannot be encoded.
var encodeFailureBody = []byte(`{"error":"Error encoding JSON data"}`)

// Response is the value a handler or guard produces. The kernel writes it
// to the client after attaching any pending cookies.
type Response struct {
	Header  http.Header
	Body    []byte
	cookies []*http.Cookie
	Status  int
}

// NewResponse creates a response with an empty header set.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// Text creates a plain-text response.
func Text(status int, body string) *Response {
	resp := NewResponse(status, []byte(body))
	resp.Header.Set("Content-Type", contentTypeText)
	return resp
}

// HTML creates an HTML response.
func HTML(status int, body string) *Response {
	resp := NewResponse(status, []byte(body))
	resp.Header.Set("Content-Type", contentTypeHTML)
	return resp
}

// JSON encodes v as the response body. If v cannot be encoded the response
// becomes a 500 with a fixed error body.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = encodeFailureBody
	}
	resp := NewResponse(status, body)
	resp.Header.Set("Content-Type", contentTypeJSON)
	return resp
}

// Redirect creates a 302 response pointing at location.
func Redirect(location string) *Response {
	return RedirectWithStatus(http.StatusFound, location)
}

// RedirectWithStatus creates a redirect with an explicit 3xx status.
func RedirectWithStatus(status int, location string) *Response {
	resp := NewResponse(status, nil)
	resp.Header.Set("Location", location)
	return resp
}

// NoContent creates an empty 204 response.
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// Envelope is the JSON shape shared by success and error responses.
type Envelope struct {
	Data    any            `json:"data,omitempty"`
	Error   *EnvelopeError `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
	Success bool           `json:"success"`
}

// EnvelopeError is the error member of a failed Envelope.
type EnvelopeError struct {
	Details any    `json:"details,omitempty"`
	Message string `json:"message"`
}

// SuccessEnvelope builds {"success":true,"message"?,"data"?}.
func SuccessEnvelope(data any, message string) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// ErrorEnvelope builds {"success":false,"error":{"message","details"?}}.
func ErrorEnvelope(message string, details any) Envelope {
	return Envelope{Error: &EnvelopeError{Message: message, Details: details}}
}

// JSONSuccess renders a success envelope.
func JSONSuccess(status int, data any, message string) *Response {
	return JSON(status, SuccessEnvelope(data, message))
}

// JSONError renders an error envelope.
func JSONError(status int, message string, details any) *Response {
	return JSON(status, ErrorEnvelope(message, details))
}

// SetCookie attaches c, replacing any earlier cookie with the same name.
func (r *Response) SetCookie(c *http.Cookie) {
	for i, existing := range r.cookies {
		if existing.Name == c.Name {
			r.cookies[i] = c
			return
		}
	}
	r.cookies = append(r.cookies, c)
}

// Cookies returns the cookies attached to the response.
func (r *Response) Cookies() []*http.Cookie {
	return r.cookies
}

// Write sends the response to w. The body is omitted for HEAD requests and
// for statuses that do not allow one.
func (r *Response) Write(w http.ResponseWriter, head bool) error {
	h := w.Header()
	for k, v := range r.Header {
		h[k] = v
	}
	for _, c := range r.cookies {
		http.SetCookie(w, c)
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	if !bodyAllowed(status) {
		w.WriteHeader(status)
		return nil
	}

	h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	w.WriteHeader(status)
	if head || len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
