package service

import "errors"

var (
	ErrNoMessages   = errors.New("messages must not be empty")
	ErrEmptyMessage = errors.New("last message has no content")
)
