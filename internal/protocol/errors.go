package protocol

import "fmt"

// AppError is a structured error the server reports inside an otherwise
// well-formed response payload. It is surfaced to the caller and is never
// fatal to the connection.
type AppError struct {
	Code    string
	Message string
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("protocol: server error %q", e.Code)
	}
	return fmt.Sprintf("protocol: server error %q: %s", e.Code, e.Message)
}
