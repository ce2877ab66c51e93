package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-audiosplit/internal/split"
)

// Parallelism configuration.
const (
	// MaxRecommendedParallel is the recommended upper limit for concurrent
	// API requests. Higher values may trigger rate limiting.
	MaxRecommendedParallel = 10
)

// Default retry configuration.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Options configures transcription behavior.
type Options struct {
	// Language specifies the audio language as an ISO 639-1 code.
	// Empty means auto-detect.
	Language string

	// Prompt provides context to improve transcription accuracy.
	// Useful for domain-specific vocabulary or acronyms.
	Prompt string
}

// Transcriber transcribes audio files to text.
type Transcriber interface {
	// Transcribe converts an audio file to text.
	Transcribe(ctx context.Context, audioPath string, opts Options) (string, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly, allowing mocks in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio using OpenAI's transcription API with
// automatic retries and exponential backoff for transient errors.
type OpenAITranscriber struct {
	client     audioTranscriber
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithBaseDelay sets the initial backoff delay.
func WithBaseDelay(d time.Duration) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if d > 0 {
			t.baseDelay = d
		}
	}
}

// NewOpenAITranscriber creates a transcriber backed by the given client.
func NewOpenAITranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client:     client,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe converts an audio file to text using whisper-1.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (string, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Language: opts.Language,
		Prompt:   opts.Prompt,
	}

	text, err := retryWithBackoff(ctx, t.maxRetries, t.baseDelay, t.maxDelay, func() (string, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", classify(err)
		}
		return resp.Text, nil
	})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", filepath.Base(audioPath), err)
	}
	return text, nil
}

// classify maps OpenAI API errors to package sentinels where useful.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAuthFailed, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimit, err)
		}
	}
	return err
}

// isRetryable reports whether a transcription error is worth retrying.
// Rate limits and server errors are transient; auth failures and context
// cancellation are not.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrAuthFailed) {
		return false
	}
	if errors.Is(err, ErrRateLimit) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return false
}

// retryWithBackoff executes fn with exponential backoff, retrying only errors
// isRetryable accepts. Returns the result of the last attempt.
func retryWithBackoff(ctx context.Context, maxRetries int, baseDelay, maxDelay time.Duration, fn func() (string, error)) (string, error) {
	var lastErr error
	delay := baseDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return "", ctx.Err()
			case <-timer.C:
			}
			delay = min(delay*2, maxDelay)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryable(lastErr) {
			return "", lastErr
		}
	}

	return "", fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

// TranscribeAll transcribes chunks in parallel, bounded by maxParallel.
// Results are returned in chunk order. If any chunk fails, the whole
// operation is aborted and the first error is returned.
func TranscribeAll(
	ctx context.Context,
	chunks []split.Chunk,
	t Transcriber,
	opts Options,
	maxParallel int,
) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	if maxParallel < 1 {
		maxParallel = 1
	}

	results := make([]string, len(chunks))
	sem := make(chan struct{}, maxParallel)

	g, ctx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			text, err := t.Transcribe(ctx, chunk.Path, opts)
			if err != nil {
				return fmt.Errorf("chunk %d (%s): %w", chunk.Index, filepath.Base(chunk.Path), err)
			}
			results[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
