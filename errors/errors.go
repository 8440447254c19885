package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrProfileNotFound   = fmt.Errorf("profile not found")
	ErrPostNotFound      = fmt.Errorf("post not found")
	ErrUnknownReaction   = fmt.Errorf("unknown reaction kind")
	ErrDisplayNameTaken  = fmt.Errorf("display name already taken")
	ErrInvalidCredential = fmt.Errorf("invalid credentials")
)
