package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// errTailLines is how many trailing diagnostic lines are kept for error messages.
const errTailLines = 20

// RunOutput executes a tool and captures its combined output.
// The output is returned even when the command fails, since ffmpeg writes
// diagnostics to stderr and returns non-zero exit codes for some valid
// operations. Callers decide whether the error matters.
func RunOutput(ctx context.Context, path string, args []string) (string, error) {
	// #nosec G204 -- path and args are built by this module, not raw user input
	cmd := exec.CommandContext(ctx, path, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	return buf.String(), err
}

// RunLines executes a tool, streaming its stderr to onLine one line at a time
// while the process is still running. Stdout is discarded. FFmpeg overwrites
// its progress line with carriage returns, so lines are split on both \r and
// \n. On a non-zero exit the returned error carries the last few diagnostic
// lines for context.
func RunLines(ctx context.Context, path string, args []string, onLine func(string)) error {
	// #nosec G204 -- path and args are built by this module, not raw user input
	cmd := exec.CommandContext(ctx, path, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}

	tail := consumeLines(stderr, onLine)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w\nOutput: %s", path, err, strings.Join(tail, "\n"))
	}
	return nil
}

// consumeLines reads r line by line, invoking onLine for each and retaining a
// tail of recent lines for error reporting.
func consumeLines(r io.Reader, onLine func(string)) []string {
	scanner := bufio.NewScanner(r)
	scanner.Split(scanCRLines)
	// Progress lines are short, but error dumps can be long.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var tail []string
	for scanner.Scan() {
		line := scanner.Text()
		if onLine != nil {
			onLine(line)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		tail = append(tail, line)
		if len(tail) > errTailLines {
			tail = tail[1:]
		}
	}
	return tail
}

// scanCRLines is a bufio.SplitFunc that treats both \r and \n as line
// terminators. FFmpeg uses \r to redraw its progress line in place.
func scanCRLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		// Swallow \r\n pairs as a single terminator.
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
