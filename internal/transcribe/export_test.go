package transcribe

// Export internal functions and interfaces for testing.

// AudioTranscriber exports audioTranscriber for testing.
type AudioTranscriber = audioTranscriber

// IsRetryable exports isRetryable for testing.
var IsRetryable = isRetryable

// Classify exports classify for testing.
var Classify = classify
