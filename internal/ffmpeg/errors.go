package ffmpeg

import "errors"

// ErrNotFound indicates a required external tool (ffmpeg or ffprobe) is not
// installed or not reachable via PATH or the override environment variables.
var ErrNotFound = errors.New("ffmpeg/ffprobe not found")
