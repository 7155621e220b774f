package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
	// ErrInvalidRole indicates an upload role other than raw or previous.
	ErrInvalidRole = errors.New("role must be raw or previous")
	// ErrNoRawFile indicates an operation needs the raw upload first.
	ErrNoRawFile = errors.New("upload the raw file first")
	// ErrNoPreviousFile indicates an operation needs the previous upload first.
	ErrNoPreviousFile = errors.New("upload the previous file first")
	// ErrEmptyUpload indicates an upload without content.
	ErrEmptyUpload = errors.New("uploaded file is empty")
)
