package audiosource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/llehouerou/playerd/internal/track"
)

// DecoderOptions configures the child process that decodes container or
// file bytes into raw PCM on its standard output.
type DecoderOptions struct {
	Path         string
	HideBanner   bool
	LogLevel     string
	SampleFormat string
	Channels     int
	SampleRate   int
}

// LocalFileSource opens a decoder child process reading directly from a
// local path.
type LocalFileSource struct {
	opts DecoderOptions
}

// NewLocalFileSource creates a LocalFileSource using opts for every
// decode invocation.
func NewLocalFileSource(opts DecoderOptions) *LocalFileSource {
	return &LocalFileSource{opts: opts}
}

// OpenReader implements Source. It fails fast with FileNotFoundError
// before spawning a decoder if the path does not exist.
func (s *LocalFileSource) OpenReader(ctx context.Context, t track.Track) (Reader, error) {
	if _, err := os.Stat(t.URI); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &FileNotFoundError{Path: t.URI}
		}
		return nil, err
	}

	return s.openWithCommand(ctx, decoderArgs(s.opts, t.URI))
}

// openWithCommand spawns the decoder with an explicit argument list,
// bypassing the path existence check. Exercised directly by tests that
// substitute a stand-in decoder.
func (s *LocalFileSource) openWithCommand(ctx context.Context, args []string) (Reader, error) {
	cmd := exec.CommandContext(ctx, s.opts.Path, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &childProcessReader{
		waiter: &procWaiter{cmd: cmd},
		stdout: stdout,
		stderr: &stderr,
		child:  "decoder",
	}, nil
}

func decoderArgs(opts DecoderOptions, inputPath string) []string {
	var args []string
	if opts.HideBanner {
		args = append(args, "-hide_banner")
	}
	if opts.LogLevel != "" {
		args = append(args, "-loglevel", opts.LogLevel)
	}
	args = append(args, "-i", inputPath)
	if opts.SampleFormat != "" {
		args = append(args, "-f", opts.SampleFormat)
	}
	if opts.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(opts.SampleRate))
	}
	if opts.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(opts.Channels))
	}
	args = append(args, "pipe:1")
	return args
}

// childProcessReader reads raw PCM from a single child process's stdout,
// translating a non-zero exit observed at EOF into a PipelineFailedError.
type childProcessReader struct {
	waiter *procWaiter
	stdout io.ReadCloser
	stderr *bytes.Buffer
	child  string
}

func (r *childProcessReader) Read(_ context.Context, buf []byte) (int, error) {
	n, err := r.stdout.Read(buf)
	if err == nil {
		return n, nil
	}
	if err != io.EOF {
		return n, err
	}

	waitErr := r.waiter.wait()
	if code, ok := exitCode(waitErr); ok && code != 0 {
		return n, &PipelineFailedError{
			Child:    r.child,
			ExitCode: code,
			Stderr:   strings.TrimSpace(r.stderr.String()),
		}
	}
	return n, io.EOF
}

func (r *childProcessReader) Close() error {
	r.waiter.kill()
	_ = r.stdout.Close()
	r.waiter.wait() //nolint:errcheck // exit status isn't meaningful after a deliberate close
	return nil
}
