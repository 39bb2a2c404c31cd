package errors

import "fmt"

var (
	ErrLoginRejected     = fmt.Errorf("username already taken")
	ErrInvalidUsername   = fmt.Errorf("invalid username")
	ErrRegistryFull      = fmt.Errorf("session registry is full")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrInvalidPayload    = fmt.Errorf("unexpected event payload")
	ErrOnlyCensoredFiles = fmt.Errorf("censored directory contains directories")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
)
