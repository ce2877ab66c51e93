package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrInvalidChunkSize indicates a non-positive chunk size was requested.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidLanguage indicates a language code is not a valid ISO 639-1 code.
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")
)
