package ffmpeg

import (
	"os"
	"os/exec"
)

// envProvider abstracts environment and path lookup operations.
type envProvider interface {
	Getenv(key string) string
	LookPath(file string) (string, error)
	Stat(name string) (os.FileInfo, error)
}

// Compile-time interface verification.
var _ envProvider = osEnvProvider{}

// osEnvProvider implements envProvider using the os and exec packages.
type osEnvProvider struct{}

func (osEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (osEnvProvider) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osEnvProvider) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
