package domain

import "errors"

var (
	// ErrNonRegionalPhone indicates the phone number does not resolve to the supported calling code.
	ErrNonRegionalPhone = errors.New("phone number is outside the supported region")
	// ErrMissingPhone indicates a reminder payload arrived without a recipient.
	ErrMissingPhone = errors.New("phone is required")
	// ErrMalformedPayload indicates the booking payload could not be decoded.
	ErrMalformedPayload = errors.New("malformed booking payload")
	// ErrInvalidStartTime indicates the booking start time is missing or unparsable.
	ErrInvalidStartTime = errors.New("invalid booking start time")
)
