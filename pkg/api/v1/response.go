// Package v1 holds the result envelope returned by every a2adesk operation.
package v1

// Result codes.
const (
	CodeOK   = 0
	CodeFail = 1
)

// Response is the uniform result envelope. Message is "ok" on success and
// the error description on failure.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// OK wraps a successful result.
func OK(data any) Response {
	return Response{Code: CodeOK, Message: "ok", Data: data}
}

// Fail wraps an error. Data is always null.
func Fail(err error) Response {
	return Response{Code: CodeFail, Message: err.Error()}
}

// Succeeded reports whether the response carries a result.
func (r Response) Succeeded() bool {
	return r.Code == CodeOK
}
