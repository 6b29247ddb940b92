package repository

import "errors"

// Common repository errors
var (
	ErrBoardNotFound       = errors.New("board not found")
	ErrListNotFound        = errors.New("list not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrChatSessionNotFound = errors.New("chat session not found")
	ErrUsageNotFound       = errors.New("usage counter not found")
)
