package cli

import (
	"context"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-audiosplit/internal/config"
	"github.com/alnah/go-audiosplit/internal/ffmpeg"
	"github.com/alnah/go-audiosplit/internal/split"
	"github.com/alnah/go-audiosplit/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// Factories for domain objects
	ToolResolver       ToolResolver
	ConfigLoader       ConfigLoader
	SplitterFactory    SplitterFactory
	TranscriberFactory TranscriberFactory
}

// Splitter is the subset of *split.Splitter the CLI depends on.
type Splitter interface {
	Split(ctx context.Context, sourcePath string) ([]split.Chunk, error)
}

// ToolResolver locates the external ffmpeg/ffprobe binaries.
type ToolResolver interface {
	Resolve() (ffmpeg.Tools, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// SplitterFactory creates audio splitters.
type SplitterFactory interface {
	NewSplitter(tools ffmpeg.Tools, opts ...split.Option) (Splitter, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey string) transcribe.Transcriber
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithToolResolver sets the external tool resolver.
func WithToolResolver(r ToolResolver) EnvOption {
	return func(e *Env) { e.ToolResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithSplitterFactory sets the splitter factory.
func WithSplitterFactory(f SplitterFactory) EnvOption {
	return func(e *Env) { e.SplitterFactory = f }
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) { e.TranscriberFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		ToolResolver:       &defaultToolResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		SplitterFactory:    &defaultSplitterFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultToolResolver implements ToolResolver using the ffmpeg package.
type defaultToolResolver struct{}

func (defaultToolResolver) Resolve() (ffmpeg.Tools, error) {
	return ffmpeg.NewResolver().Resolve()
}

func (defaultToolResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.NewResolver().CheckVersion(ctx, ffmpegPath)
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultSplitterFactory implements SplitterFactory using the split package.
type defaultSplitterFactory struct{}

func (defaultSplitterFactory) NewSplitter(tools ffmpeg.Tools, opts ...split.Option) (Splitter, error) {
	return split.NewSplitter(tools.FFmpeg, tools.FFprobe, opts...)
}

// defaultTranscriberFactory implements TranscriberFactory using OpenAI.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey string) transcribe.Transcriber {
	client := openai.NewClient(apiKey)
	return transcribe.NewOpenAITranscriber(client)
}

// Compile-time interface verification.
var (
	_ ToolResolver       = (*defaultToolResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ SplitterFactory    = (*defaultSplitterFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
)
