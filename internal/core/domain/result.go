package domain

// Result is the uniform envelope returned by every domain operation.
// A failed result never carries Data.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// Ok wraps data in a successful result.
func Ok[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: &data, Message: message}
}

// Fail builds a failed result from err.
func Fail[T any](err error, message string) Result[T] {
	r := Result[T]{Message: message}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
