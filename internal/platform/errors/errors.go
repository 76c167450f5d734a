package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrNoActiveSession   = errors.New("no active session")
	ErrDaemonNotRunning  = errors.New("daemon is not running")
	ErrDaemonRunning     = errors.New("daemon is running")
	ErrDaemonStartFailed = errors.New("daemon start failed")
)
