package domain

import "errors"

var (
	// ErrEmptyQuestion is returned when a chat request carries no question text.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrGeneration marks a failed language model call.
	ErrGeneration = errors.New("generation failed")

	// ErrMissingSlot is returned when a prompt template is rendered without a declared slot.
	ErrMissingSlot = errors.New("prompt template slot missing")

	// ErrUnknownSlot is returned when a prompt template references a slot it did not declare.
	ErrUnknownSlot = errors.New("prompt template slot unknown")

	// ErrMissingAPIKey is returned at startup when a collaborator requires a credential that is not configured.
	ErrMissingAPIKey = errors.New("api key is not configured")
)
