package cellwatch

import "errors"

var (
	ErrBadStatus     = errors.New("bad response status")
	ErrMalformedBody = errors.New("malformed response body")
	ErrCommandFailed = errors.New("command failed")
	ErrNotConnected  = errors.New("not connected")
	ErrClosed        = errors.New("connection closed")
	ErrTimeout       = errors.New("timeout")
)
