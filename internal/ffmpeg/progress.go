package ffmpeg

import (
	"regexp"
	"strconv"
	"time"
)

// progressTimeRe matches the timestamp ffmpeg embeds in its stats line:
//
//	size=     512kB time=00:01:23.45 bitrate=  50.3kbits/s speed=42x
var progressTimeRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)

// ParseProgressTime extracts the elapsed encode time from one line of ffmpeg
// diagnostic output. Returns false if the line carries no progress marker.
func ParseProgressTime(line string) (time.Duration, bool) {
	matches := progressTimeRe.FindStringSubmatch(line)
	if matches == nil {
		return 0, false
	}

	h, _ := strconv.Atoi(matches[1])
	m, _ := strconv.Atoi(matches[2])
	s, _ := strconv.Atoi(matches[3])

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		fractionalToDuration(matches[4]), true
}

// fractionalToDuration converts the fractional seconds field to a Duration.
// FFmpeg usually prints centiseconds but some builds emit milliseconds or
// microseconds; normalize by digit count.
func fractionalToDuration(fractional string) time.Duration {
	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch n := len(fractional); {
	case n == 1:
		ms = frac * 100
	case n == 2:
		ms = frac * 10
	case n == 3:
		// Already milliseconds.
	case n > 3:
		for i := n; i > 3; i-- {
			ms /= 10
		}
	}
	return time.Duration(ms) * time.Millisecond
}
