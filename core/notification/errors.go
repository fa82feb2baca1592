package notification

import "errors"

var (
	// ErrInvalidMessage indicates the message failed validation before any
	// delivery attempt.
	ErrInvalidMessage = errors.New("invalid notification message")

	// ErrSendFailed indicates the provider rejected or could not deliver
	// the message. Retryable.
	ErrSendFailed = errors.New("failed to send notification")

	// ErrAuthFailed indicates the provider rejected the sender credentials.
	// Never retried.
	ErrAuthFailed = errors.New("notification provider authentication failed")
)
