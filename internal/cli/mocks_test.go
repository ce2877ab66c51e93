package cli

import (
	"bytes"
	"context"
	"errors"

	"github.com/alnah/go-audiosplit/internal/config"
	"github.com/alnah/go-audiosplit/internal/ffmpeg"
	"github.com/alnah/go-audiosplit/internal/split"
	"github.com/alnah/go-audiosplit/internal/transcribe"
)

// Shared mocks for command tests. Each mock records its calls so tests can
// assert both results and interaction order.

var errResolver = errors.New("resolver failed")

type mockToolResolver struct {
	tools          ffmpeg.Tools
	err            error
	resolveCalls   int
	versionChecked bool
}

func (m *mockToolResolver) Resolve() (ffmpeg.Tools, error) {
	m.resolveCalls++
	return m.tools, m.err
}

func (m *mockToolResolver) CheckVersion(context.Context, string) {
	m.versionChecked = true
}

type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	return m.cfg, m.err
}

type mockSplitter struct {
	chunks []split.Chunk
	err    error
	source string
}

func (m *mockSplitter) Split(_ context.Context, sourcePath string) ([]split.Chunk, error) {
	m.source = sourcePath
	return m.chunks, m.err
}

type mockSplitterFactory struct {
	splitter *mockSplitter
	err      error
	tools    ffmpeg.Tools
	optCount int
	calls    int
}

func (m *mockSplitterFactory) NewSplitter(tools ffmpeg.Tools, opts ...split.Option) (Splitter, error) {
	m.calls++
	m.tools = tools
	m.optCount = len(opts)
	if m.err != nil {
		return nil, m.err
	}
	return m.splitter, nil
}

type mockTranscriber struct {
	text  string
	err   error
	paths []string
}

func (m *mockTranscriber) Transcribe(_ context.Context, audioPath string, _ transcribe.Options) (string, error) {
	m.paths = append(m.paths, audioPath)
	if m.err != nil {
		return "", m.err
	}
	return m.text + " " + audioPath, nil
}

type mockTranscriberFactory struct {
	transcriber *mockTranscriber
	apiKey      string
	calls       int
}

func (m *mockTranscriberFactory) NewTranscriber(apiKey string) transcribe.Transcriber {
	m.calls++
	m.apiKey = apiKey
	return m.transcriber
}

// testEnv bundles an Env wired with mocks and capture buffers.
type testEnv struct {
	env      *Env
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	resolver *mockToolResolver
	loader   *mockConfigLoader
	factory  *mockSplitterFactory
	tfactory *mockTranscriberFactory
}

func newTestEnv() *testEnv {
	te := &testEnv{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		resolver: &mockToolResolver{tools: ffmpeg.Tools{FFmpeg: "/usr/bin/ffmpeg", FFprobe: "/usr/bin/ffprobe"}},
		loader:   &mockConfigLoader{},
		factory:  &mockSplitterFactory{splitter: &mockSplitter{}},
		tfactory: &mockTranscriberFactory{transcriber: &mockTranscriber{text: "transcript of"}},
	}
	te.env = &Env{
		Stdout:             te.stdout,
		Stderr:             te.stderr,
		Getenv:             func(string) string { return "" },
		ToolResolver:       te.resolver,
		ConfigLoader:       te.loader,
		SplitterFactory:    te.factory,
		TranscriberFactory: te.tfactory,
	}
	return te
}
