package engine

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Invoke once the connection has gone away.
var ErrClosed = errors.New("engine connection closed")

// Error codes reported by the engine.
const (
	CodeBadRequest     = "E_BAD_REQUEST"
	CodeUnknownCommand = "E_UNKNOWN_COMMAND"
	CodeUnknownSetting = "E_UNKNOWN_SETTING"
	CodeNotRunning     = "E_NOT_RUNNING"
	CodeInternal       = "E_INTERNAL"
)

// RemoteError is a failure reported by the engine for a single command.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRemote reports whether err carries an engine error with the given code.
// An empty code matches any engine error.
func IsRemote(err error, code string) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return code == "" || re.Code == code
}
