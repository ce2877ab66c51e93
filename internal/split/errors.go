package split

import "errors"

// ErrSourceNotFound indicates the source path does not reference an existing file.
var ErrSourceNotFound = errors.New("source file not found")

// ErrProbeFailed indicates the total duration of the source could not be determined.
var ErrProbeFailed = errors.New("duration probe failed")

// ErrEncodeFailed indicates the calibration or segmentation encode exited non-zero.
var ErrEncodeFailed = errors.New("audio encode failed")
