package recognition

import "errors"

var (
	// ErrInvalidIdentityKey is returned for keys that are not 8-15 digits.
	ErrInvalidIdentityKey = errors.New("identity key must be 8-15 digits")
	// ErrInvalidImage is returned when the payload cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrInvalidThreshold is returned for a requested threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")
	// ErrSessionRequired is returned for stream mode requests without a session.
	ErrSessionRequired = errors.New("stream mode requires a session id")
	// ErrNotFound is returned when an identity is not enrolled.
	ErrNotFound = errors.New("not found")
	// ErrMissingEmbedding is returned when a face passed the quality gate but
	// the extractor produced no usable embedding for it.
	ErrMissingEmbedding = errors.New("missing face embedding")
)
