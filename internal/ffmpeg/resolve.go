package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// Environment variables for custom tool paths.
const (
	envFFmpegPath  = "FFMPEG_PATH"
	envFFprobePath = "FFPROBE_PATH"
)

// Tool binary names looked up on PATH.
const (
	ffmpegBinary  = "ffmpeg"
	ffprobeBinary = "ffprobe"
)

// minFFmpegMajorVersion is the minimum supported ffmpeg version.
// Older versions may lack segment muxer options we rely on.
const minFFmpegMajorVersion = 4

// Tools holds resolved paths to the external binaries the pipeline invokes.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Resolver locates ffmpeg and ffprobe.
type Resolver struct {
	env    envProvider
	stderr io.Writer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEnvProvider sets the environment provider (for testing).
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithStderr sets the writer for warnings.
func WithStderr(w io.Writer) ResolverOption {
	return func(r *Resolver) { r.stderr = w }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		env:    osEnvProvider{},
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds both external tools.
// For each tool the override environment variable wins if it points at an
// existing file; otherwise the binary is looked up on PATH. Returns
// ErrNotFound naming the missing tool, so the caller can fail before touching
// the source file.
func (r *Resolver) Resolve() (Tools, error) {
	ffmpegPath, err := r.resolveTool(envFFmpegPath, ffmpegBinary)
	if err != nil {
		return Tools{}, err
	}
	ffprobePath, err := r.resolveTool(envFFprobePath, ffprobeBinary)
	if err != nil {
		return Tools{}, err
	}
	return Tools{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

// resolveTool resolves a single binary via env override or PATH lookup.
func (r *Resolver) resolveTool(envKey, binary string) (string, error) {
	if custom := r.env.Getenv(envKey); custom != "" {
		if _, err := r.env.Stat(custom); err != nil {
			return "", fmt.Errorf("%s points to %q which is not accessible: %w",
				envKey, custom, ErrNotFound)
		}
		return custom, nil
	}

	path, err := r.env.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s is not installed or not on PATH: %w", binary, ErrNotFound)
	}
	return path, nil
}

// versionRe matches the first version token of `ffmpeg -version` output,
// e.g. "ffmpeg version 6.1.1-3ubuntu5" or "ffmpeg version n7.0".
var versionRe = regexp.MustCompile(`ffmpeg version\s+n?(\d+)\.`)

// CheckVersion runs `ffmpeg -version` and warns if the major version is below
// the supported minimum. Best effort: failures are silently ignored since the
// version banner is informational only.
func (r *Resolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	output, err := RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return
	}

	matches := versionRe.FindStringSubmatch(output)
	if matches == nil {
		return
	}

	major, err := strconv.Atoi(matches[1])
	if err != nil {
		return
	}
	if major < minFFmpegMajorVersion {
		fmt.Fprintf(r.stderr, "Warning: ffmpeg %d is older than the supported minimum (%d); segmentation may misbehave\n",
			major, minFFmpegMajorVersion)
	}
}
