package protocol

import "fmt"

const (
	ErrBadJSON      = "E_PROTO_BAD_JSON"
	ErrMissingField = "E_PROTO_MISSING_FIELD"
	ErrEncode       = "E_PROTO_ENCODE"
)

var knownCodes = map[string]struct{}{
	ErrBadJSON:      {},
	ErrMissingField: {},
	ErrEncode:       {},
}

func IsKnownCode(code string) bool {
	_, ok := knownCodes[code]
	return ok
}

// Error is a malformed or unencodable protocol frame.
type Error struct {
	Code  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: missing %s", e.Code, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }
