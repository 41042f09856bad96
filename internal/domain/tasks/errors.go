package tasks

import "errors"

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskAlreadyDone = errors.New("task already completed")
	ErrValidation      = errors.New("invalid input")
)
