package conversation

import "errors"

var (
	// ErrEmptyContent is returned by SendMessage for blank input. No request is made.
	ErrEmptyContent = errors.New("message content is empty")
	// ErrNoUpdate means the server answered with a non-2xx status; the cycle carries no data.
	ErrNoUpdate = errors.New("no conversation update")
	// ErrMalformed means the response did not match the message schema.
	ErrMalformed = errors.New("malformed conversation payload")
)
