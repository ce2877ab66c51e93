package split

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-audiosplit/internal/ffmpeg"
)

// Chunk is one produced audio segment file.
// Chunks are persistent outputs; callers that treat them as intermediates
// (e.g. transcription) are responsible for cleanup via Cleanup.
type Chunk struct {
	Path  string // Absolute or source-relative path to the chunk file.
	Index int    // Zero-based index matching segment order.
}

// ProgressFunc receives encode progress while the segmentation pass runs.
// Reports are monotonic and advisory only; elapsed never exceeds total and a
// final call pins elapsed to total once the encode completes.
type ProgressFunc func(elapsed, total time.Duration)

// Splitting parameters.
const (
	// DefaultChunkSizeMB is the target chunk size when none is configured.
	// OpenAI's transcription limit is 25MB; 20MB leaves headroom for FLAC
	// size estimation error.
	DefaultChunkSizeMB = 20.0

	// fallbackSegmentSeconds is used when the calibration ratio degenerates
	// (near-zero duration, empty calibration file).
	fallbackSegmentSeconds = 60

	// outputDirSuffix is appended to the source stem to name the chunk directory.
	outputDirSuffix = "_chunks"

	// chunkPattern is the ffmpeg segment output pattern. %03d keeps
	// lexicographic and numeric order identical for up to 1000 chunks.
	chunkPattern = "part_%03d.flac"

	// chunkGlob matches produced chunk files inside the output directory.
	chunkGlob = "part_*.flac"

	bytesPerMB = 1024 * 1024
)

// encodingArgs returns the fixed ffmpeg encoding profile shared by the
// calibration and segmentation passes: audio track only, mono, 16kHz, FLAC.
// Both passes must use the same profile or the measured bytes-per-second
// ratio does not transfer.
func encodingArgs() []string {
	return []string{
		"-map", "0:a",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "flac",
	}
}

// Splitter extracts the audio track from a media file and splits it into
// fixed-size FLAC chunks using a two-pass size-to-duration estimation.
type Splitter struct {
	ffmpegPath  string
	ffprobePath string
	chunkSizeMB float64
	progress    ProgressFunc

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	lines   lineRunner
	files   fileStatter
	dirs    dirMaker
	remover fileRemover
	glob    globber
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the target chunk size in megabytes.
// Non-positive values fall back to DefaultChunkSizeMB.
func WithChunkSize(mb float64) Option {
	return func(s *Splitter) {
		if mb > 0 {
			s.chunkSizeMB = mb
		}
	}
}

// WithProgress sets the progress callback for the segmentation pass.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Splitter) { s.progress = fn }
}

// WithCommandRunner sets the command runner.
func WithCommandRunner(r commandRunner) Option {
	return func(s *Splitter) { s.cmd = r }
}

// WithLineRunner sets the streaming command runner.
func WithLineRunner(r lineRunner) Option {
	return func(s *Splitter) { s.lines = r }
}

// WithFileStatter sets the file statter.
func WithFileStatter(f fileStatter) Option {
	return func(s *Splitter) { s.files = f }
}

// WithDirMaker sets the directory creator.
func WithDirMaker(d dirMaker) Option {
	return func(s *Splitter) { s.dirs = d }
}

// WithFileRemover sets the file remover.
func WithFileRemover(f fileRemover) Option {
	return func(s *Splitter) { s.remover = f }
}

// WithGlobber sets the chunk file enumerator.
func WithGlobber(g globber) Option {
	return func(s *Splitter) { s.glob = g }
}

// NewSplitter creates a Splitter using the given resolved tool paths.
func NewSplitter(ffmpegPath, ffprobePath string, opts ...Option) (*Splitter, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	if ffprobePath == "" {
		return nil, fmt.Errorf("ffprobePath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	s := &Splitter{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		chunkSizeMB: DefaultChunkSizeMB,
		cmd:         osCommandRunner{},
		lines:       osLineRunner{},
		files:       osFileStatter{},
		dirs:        osDirMaker{},
		remover:     osFileRemover{},
		glob:        osGlobber{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// OutputDir returns the chunk directory derived from the source path:
// a sibling directory named after the source stem plus "_chunks".
func OutputDir(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), sourceStem(sourcePath)+outputDirSuffix)
}

// sourceStem returns the source filename without its extension.
func sourceStem(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Split runs the full pipeline on sourcePath and returns the ordered chunk list.
//
// Stages: validate source, create the output directory, probe total duration,
// calibrate bytes-per-second with a full-file encode, derive the segment
// duration, then run the segmented encode while reporting progress. On a
// segmentation failure no chunk list is returned; any partially written chunk
// files are left on disk for inspection.
func (s *Splitter) Split(ctx context.Context, sourcePath string) ([]Chunk, error) {
	info, err := s.files.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, sourcePath)
	}

	outDir := OutputDir(sourcePath)
	if err := s.dirs.MkdirAll(outDir, 0750); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}

	total, err := s.probeDuration(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	segmentSec, err := s.calibrate(ctx, sourcePath, outDir, total)
	if err != nil {
		return nil, err
	}

	if err := s.encodeSegments(ctx, sourcePath, outDir, segmentSec, total); err != nil {
		return nil, err
	}

	return s.collectChunks(outDir)
}

// probeDuration queries the total duration of the source via ffprobe.
func (s *Splitter) probeDuration(ctx context.Context, sourcePath string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		sourcePath,
	}

	output, err := s.cmd.CombinedOutput(ctx, s.ffprobePath, args)
	if err != nil {
		// An interrupted probe is a cancellation, not a probe failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%w: %v\nOutput: %s", ErrProbeFailed, err, output)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparsable ffprobe output %q", ErrProbeFailed, strings.TrimSpace(string(output)))
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("%w: non-positive duration %v", ErrProbeFailed, seconds)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// calibrate encodes the whole source once with the target profile to measure
// the achieved bytes-per-second, then derives the segment duration. The
// temporary calibration file is removed on all paths; only this method may
// delete it, and only after its size has been read.
func (s *Splitter) calibrate(ctx context.Context, sourcePath, outDir string, total time.Duration) (int, error) {
	tempPath := filepath.Join(outDir, "temp_"+sourceStem(sourcePath)+".flac")
	defer func() {
		_ = s.remover.Remove(tempPath) // best-effort; encode may not have created it
	}()

	args := []string{"-y", "-i", sourcePath}
	args = append(args, encodingArgs()...)
	args = append(args, tempPath)

	output, err := s.cmd.CombinedOutput(ctx, s.ffmpegPath, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%w: calibration encode: %v\nOutput: %s", ErrEncodeFailed, err, output)
	}

	info, err := s.files.Stat(tempPath)
	if err != nil {
		return 0, fmt.Errorf("%w: calibration output missing: %v", ErrEncodeFailed, err)
	}

	return segmentSeconds(info.Size(), total, s.chunkSizeMB), nil
}

// segmentSeconds derives the per-chunk duration from the measured calibration
// size. Floored; degenerate ratios fall back to a fixed default.
func segmentSeconds(calibrationBytes int64, total time.Duration, chunkSizeMB float64) int {
	totalSec := total.Seconds()
	if totalSec <= 0 {
		return fallbackSegmentSeconds
	}

	ratio := float64(calibrationBytes) / totalSec // bytes per second
	if ratio <= 0 {
		return fallbackSegmentSeconds
	}

	seconds := int(math.Floor(chunkSizeMB * bytesPerMB / ratio))
	if seconds <= 0 {
		return fallbackSegmentSeconds
	}
	return seconds
}

// encodeSegments runs the segmented encode, reporting progress parsed from
// ffmpeg's diagnostic stream as it arrives.
func (s *Splitter) encodeSegments(ctx context.Context, sourcePath, outDir string, segmentSec int, total time.Duration) error {
	args := []string{"-i", sourcePath}
	args = append(args, encodingArgs()...)
	args = append(args,
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentSec),
		"-reset_timestamps", "1",
		filepath.Join(outDir, chunkPattern),
	)

	var last time.Duration
	onLine := func(line string) {
		elapsed, ok := ffmpeg.ParseProgressTime(line)
		if !ok || elapsed <= last {
			return
		}
		last = elapsed
		s.report(min(elapsed, total), total)
	}

	if err := s.lines.RunLines(ctx, s.ffmpegPath, args, onLine); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Fail closed: no chunk list on error. Partial chunk files written
		// before the failure remain on disk for inspection.
		return fmt.Errorf("%w: segmentation encode: %v", ErrEncodeFailed, err)
	}

	if last < total {
		s.report(total, total)
	}
	return nil
}

// report invokes the progress callback if one is set.
func (s *Splitter) report(elapsed, total time.Duration) {
	if s.progress != nil {
		s.progress(elapsed, total)
	}
}

// collectChunks enumerates produced chunk files in segment order.
func (s *Splitter) collectChunks(outDir string) ([]Chunk, error) {
	paths, err := s.glob.Glob(filepath.Join(outDir, chunkGlob))
	if err != nil {
		return nil, fmt.Errorf("cannot enumerate chunks: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced in %s", ErrEncodeFailed, outDir)
	}

	// Zero-padded numbering makes lexicographic order equal segment order.
	sort.Strings(paths)

	chunks := make([]Chunk, len(paths))
	for i, p := range paths {
		chunks[i] = Chunk{Path: p, Index: i}
	}
	return chunks, nil
}

// Cleanup removes chunk files and their directory.
// Intended for callers that consume chunks as intermediates (transcription).
func Cleanup(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	dir := filepath.Dir(chunks[0].Path)

	// Safety check: only remove directories this package names.
	if !strings.HasSuffix(dir, outputDirSuffix) {
		for _, c := range chunks {
			_ = os.Remove(c.Path) // best-effort; files may already be gone
		}
		return nil
	}

	return os.RemoveAll(dir)
}
