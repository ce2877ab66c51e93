package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-audiosplit/internal/format"
	"github.com/alnah/go-audiosplit/internal/split"
)

// SplitCmd creates the split command.
// The env parameter provides injectable dependencies for testing.
func SplitCmd(env *Env) *cobra.Command {
	var size float64

	cmd := &cobra.Command{
		Use:   "split <media-file>",
		Short: "Extract the audio track and split it into fixed-size FLAC chunks",
		Long: `Extract the audio track from a media file, normalize it to mono 16kHz FLAC,
and split it into chunks close to a target size.

Chunk duration is estimated in two passes: a calibration encode of the full
file measures the achieved bytes-per-second, then the segment length is
derived so each chunk lands near the target size.

Chunks are written to a sibling directory named <source-stem>_chunks as
part_000.flac, part_001.flac, ... Their paths are printed to stdout.`,
		Example: `  audiosplit split interview.mp4
  audiosplit split lecture.mkv -s 10
  audiosplit split podcast.mp3 --size 24.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd.Context(), env, args[0], size, cmd.Flags().Changed("size"))
		},
	}

	cmd.Flags().Float64VarP(&size, "size", "s", split.DefaultChunkSizeMB,
		"Target chunk size in megabytes")

	return cmd
}

// runSplit executes the splitting pipeline.
// External tools are resolved before the source file is touched, so a missing
// ffmpeg/ffprobe fails first.
func runSplit(ctx context.Context, env *Env, inputPath string, sizeMB float64, sizeSet bool) error {
	sizeMB, err := effectiveChunkSize(env, sizeMB, sizeSet)
	if err != nil {
		return err
	}

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

	fmt.Fprintf(env.Stderr, "Saving chunks to %s\n", split.OutputDir(inputPath))
	fmt.Fprintln(env.Stderr, "Calibrating encode ratio (this encodes the whole file once)...")

	chunks, err := splitter.Split(ctx, inputPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done: %d chunks\n", len(chunks))
	for _, chunk := range chunks {
		fmt.Fprintln(env.Stdout, chunk.Path)
	}
	return nil
}

// effectiveChunkSize applies the precedence flag > config > built-in default.
// The config loader already applies its own env fallback.
func effectiveChunkSize(env *Env, flagMB float64, flagSet bool) (float64, error) {
	if flagSet {
		if flagMB <= 0 {
			return 0, fmt.Errorf("%w: got %v", ErrInvalidChunkSize, flagMB)
		}
		return flagMB, nil
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
		return split.DefaultChunkSizeMB, nil
	}
	if cfg.ChunkSizeMB > 0 {
		return cfg.ChunkSizeMB, nil
	}
	return split.DefaultChunkSizeMB, nil
}

// progressPrinter renders segmentation progress as a single redrawn line.
func progressPrinter(w io.Writer) split.ProgressFunc {
	return func(elapsed, total time.Duration) {
		fmt.Fprintf(w, "\rEncoding... %s (%s/%s)",
			format.Percent(elapsed, total),
			format.Duration(elapsed),
			format.Duration(total))
		if elapsed >= total {
			fmt.Fprintln(w)
		}
	}
}
