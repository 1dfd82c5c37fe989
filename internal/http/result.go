package httpapi

// Result wraps every gazetteer API payload. HTTP status stays 200; callers
// branch on Code, which is ResultSuccess for a good answer and ResultError when
// Message carries a validation or lookup failure.
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

// Ok wraps a successful payload.
func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// Fail carries message back with no payload.
func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}
