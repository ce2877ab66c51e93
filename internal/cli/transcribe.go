package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-audiosplit/internal/config"
	"github.com/alnah/go-audiosplit/internal/split"
	"github.com/alnah/go-audiosplit/internal/transcribe"
)

// EnvOpenAIAPIKey is the environment variable holding the OpenAI API key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// languageRe matches ISO 639-1 codes with an optional region subtag,
// e.g. "en", "fr", "pt-BR".
var languageRe = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// validateLanguage checks a user-supplied language code.
// Empty means auto-detect and is always valid.
func validateLanguage(code string) error {
	if code == "" {
		return nil
	}
	if !languageRe.MatchString(code) {
		return fmt.Errorf("%w: %q (expected ISO 639-1, e.g. en, fr, pt-BR)", ErrInvalidLanguage, code)
	}
	return nil
}

// clampParallel constrains parallel request count to [1, MaxRecommendedParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > transcribe.MaxRecommendedParallel {
		return transcribe.MaxRecommendedParallel
	}
	return n
}

// deriveOutputPath converts a media file path to a transcript output path.
// Example: "interview.mp4" -> "interview.txt"
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".txt"
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		size       float64
		output     string
		language   string
		parallel   int
		keepChunks bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Split a media file and transcribe the chunks",
		Long: `Split a media file into FLAC chunks (see "audiosplit split") and transcribe
them in parallel using OpenAI's transcription API.

Chunk files are removed after a successful transcription unless --keep-chunks
is given. Requires OPENAI_API_KEY.`,
		Example: `  audiosplit transcribe interview.mp4
  audiosplit transcribe lecture.mkv -o lecture-notes.txt -l en
  audiosplit transcribe meeting.mp3 -p 4 --keep-chunks`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), env, args[0], transcribeOptions{
				sizeMB:     size,
				sizeSet:    cmd.Flags().Changed("size"),
				output:     output,
				language:   language,
				parallel:   parallel,
				keepChunks: keepChunks,
			})
		},
	}

	cmd.Flags().Float64VarP(&size, "size", "s", split.DefaultChunkSizeMB,
		"Target chunk size in megabytes")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>.txt)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code, e.g. en, fr)")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", transcribe.MaxRecommendedParallel,
		"Max concurrent API requests (1-10)")
	cmd.Flags().BoolVar(&keepChunks, "keep-chunks", false, "Keep the chunk directory after transcription")

	return cmd
}

// transcribeOptions bundles parsed transcribe flags.
type transcribeOptions struct {
	sizeMB     float64
	sizeSet    bool
	output     string
	language   string
	parallel   int
	keepChunks bool
}

// runTranscribe executes the split-then-transcribe pipeline.
// Validation order: chunk size -> language -> API key -> tools -> split.
func runTranscribe(ctx context.Context, env *Env, inputPath string, opts transcribeOptions) error {
	sizeMB, err := effectiveChunkSize(env, opts.sizeMB, opts.sizeSet)
	if err != nil {
		return err
	}

	if err := validateLanguage(opts.language); err != nil {
		return err
	}
	parallel := clampParallel(opts.parallel)

	apiKey := env.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	outputPath := config.ResolveOutputPath(opts.output, cfg.OutputDir,
		deriveOutputPath(filepath.Base(inputPath)))

	tools, err := env.ToolResolver.Resolve()
	if err != nil {
		return err
	}
	env.ToolResolver.CheckVersion(ctx, tools.FFmpeg)

	splitter, err := env.SplitterFactory.NewSplitter(tools,
		split.WithChunkSize(sizeMB),
		split.WithProgress(progressPrinter(env.Stderr)),
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stderr, "Splitting audio...")
	chunks, err := splitter.Split(ctx, inputPath)
	if err != nil {
		return err
	}

	// Chunks are intermediates here; remove them unless asked to keep.
	// Only after the transcript is written: on failure the chunks stay so a
	// rerun does not repeat the calibration and encode.
	succeeded := false
	if !opts.keepChunks {
		defer func() {
			if !succeeded {
				return
			}
			if cleanupErr := split.Cleanup(chunks); cleanupErr != nil {
				fmt.Fprintf(env.Stderr, "Warning: failed to clean up chunks: %v\n", cleanupErr)
			}
		}()
	}

	fmt.Fprintf(env.Stderr, "Transcribing %d chunks...\n", len(chunks))

	transcriber := env.TranscriberFactory.NewTranscriber(apiKey)
	results, err := transcribe.TranscribeAll(ctx, chunks, transcriber,
		transcribe.Options{Language: opts.language}, parallel)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(outputPath, strings.Join(results, "\n\n")); err != nil {
		return err
	}
	succeeded = true

	fmt.Fprintf(env.Stderr, "Done: %s\n", outputPath)
	return nil
}

// writeFileAtomic writes content to path, failing if the file already exists
// (O_EXCL). On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}
