package transcribe

import "errors"

// ErrAuthFailed indicates the API rejected the credentials.
var ErrAuthFailed = errors.New("authentication failed")

// ErrRateLimit indicates the API rate limit was exhausted after retries.
var ErrRateLimit = errors.New("rate limit exceeded")
