package split

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/alnah/go-audiosplit/internal/ffmpeg"
)

// commandRunner executes external commands and returns their combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// lineRunner executes external commands while streaming diagnostic output
// line by line. Used for the segmentation encode so progress can be reported
// while ffmpeg is still running.
type lineRunner interface {
	RunLines(ctx context.Context, name string, args []string, onLine func(string)) error
}

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// dirMaker creates directories.
type dirMaker interface {
	MkdirAll(path string, perm os.FileMode) error
}

// fileRemover removes files.
type fileRemover interface {
	Remove(name string) error
}

// globber enumerates files matching a pattern.
type globber interface {
	Glob(pattern string) ([]string, error)
}

// --- Default implementations using real OS functions ---

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are controlled by the splitter, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// osLineRunner implements lineRunner using ffmpeg.RunLines.
type osLineRunner struct{}

func (osLineRunner) RunLines(ctx context.Context, name string, args []string, onLine func(string)) error {
	return ffmpeg.RunLines(ctx, name, args, onLine)
}

// osFileStatter implements fileStatter using os.Stat.
type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// osDirMaker implements dirMaker using os.MkdirAll.
type osDirMaker struct{}

func (osDirMaker) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// osFileRemover implements fileRemover using os.Remove.
type osFileRemover struct{}

func (osFileRemover) Remove(name string) error {
	return os.Remove(name)
}

// osGlobber implements globber using filepath.Glob.
type osGlobber struct{}

func (osGlobber) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
