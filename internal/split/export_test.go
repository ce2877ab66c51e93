package split

// Export internal functions and interfaces for testing.
// This file is only compiled during tests (suffix _test.go).

// SegmentSeconds exports segmentSeconds for testing.
var SegmentSeconds = segmentSeconds

// SourceStem exports sourceStem for testing.
var SourceStem = sourceStem

// EncodingArgs exports encodingArgs for testing.
var EncodingArgs = encodingArgs

// FallbackSegmentSeconds exports the fallback constant for testing.
const FallbackSegmentSeconds = fallbackSegmentSeconds

// --- Dependency injection exports ---

// CommandRunner exports commandRunner interface for testing.
type CommandRunner = commandRunner

// LineRunner exports lineRunner interface for testing.
type LineRunner = lineRunner

// FileStatter exports fileStatter interface for testing.
type FileStatter = fileStatter

// DirMaker exports dirMaker interface for testing.
type DirMaker = dirMaker

// FileRemover exports fileRemover interface for testing.
type FileRemover = fileRemover

// Globber exports globber interface for testing.
type Globber = globber
