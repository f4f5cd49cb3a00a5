package models

import "errors"

// Error kinds returned by the query path. Failures wrap one of these so
// callers can classify them with errors.Is.
var (
	// ErrInvalidAddress reports unusable caller input such as an empty hostname.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrResolution reports a DNS failure or a lookup without addresses.
	ErrResolution = errors.New("resolution failed")

	// ErrTransport reports a connect, send or receive failure.
	ErrTransport = errors.New("transport error")

	// ErrTimeout reports an exceeded deadline.
	ErrTimeout = errors.New("timed out")

	// ErrDecode reports malformed packet framing or a malformed field.
	ErrDecode = errors.New("decode error")

	// ErrMalformedResponse reports a Bedrock payload with a wrong field count
	// or an unparsable field.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrProtocolMismatch reports a packet that is not valid in the current state
	// and cannot be skipped.
	ErrProtocolMismatch = errors.New("protocol mismatch")

	// ErrDenied reports a resolved address inside a denied network.
	ErrDenied = errors.New("address not allowed")
)
