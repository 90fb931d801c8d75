package audiosource

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/llehouerou/playerd/internal/track"
)

// FetcherOptions configures the child process that resolves a URL to
// container bytes on its standard output.
type FetcherOptions struct {
	Path               string
	UseCookies         bool
	CookiesFromBrowser string
	CookiesFile        string
}

// RemoteSource spawns a fetcher and a decoder child process and links
// them with a background copy pump.
type RemoteSource struct {
	fetcher     FetcherOptions
	decoder     DecoderOptions
	pumpBufSize int
}

// NewRemoteSource creates a RemoteSource. pumpBufSize <= 0 uses
// DefaultPumpBufferSize.
func NewRemoteSource(fetcher FetcherOptions, decoder DecoderOptions, pumpBufSize int) *RemoteSource {
	return &RemoteSource{fetcher: fetcher, decoder: decoder, pumpBufSize: pumpBufSize}
}

// OpenReader implements Source.
func (s *RemoteSource) OpenReader(ctx context.Context, t track.Track) (Reader, error) {
	return s.openWithCommands(ctx, fetcherArgs(s.fetcher, t.URI), decoderArgs(s.decoder, "pipe:0"))
}

// openWithCommands spawns fetcher and decoder with explicit argument
// lists. Exercised directly by tests that substitute stand-in processes.
func (s *RemoteSource) openWithCommands(ctx context.Context, fetchArgs, decodeArgsList []string) (Reader, error) {
	fetchCmd := exec.CommandContext(ctx, s.fetcher.Path, fetchArgs...)
	fetchStdout, err := fetchCmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var fetchStderr bytes.Buffer
	fetchCmd.Stderr = &fetchStderr

	decodeCmd := exec.CommandContext(ctx, s.decoder.Path, decodeArgsList...)
	decodeStdin, err := decodeCmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	decodeStdout, err := decodeCmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var decodeStderr bytes.Buffer
	decodeCmd.Stderr = &decodeStderr

	if err := fetchCmd.Start(); err != nil {
		return nil, err
	}
	if err := decodeCmd.Start(); err != nil {
		_ = fetchCmd.Process.Kill()
		return nil, err
	}

	pump := NewPump(fetchStdout, decodeStdin, s.pumpBufSize)
	pump.Start()

	return &pipelineReader{
		fetchWaiter:  &procWaiter{cmd: fetchCmd},
		decodeWaiter: &procWaiter{cmd: decodeCmd},
		decodeStdout: decodeStdout,
		fetchStderr:  &fetchStderr,
		decodeStderr: &decodeStderr,
		pump:         pump,
	}, nil
}

func fetcherArgs(opts FetcherOptions, url string) []string {
	var args []string
	if opts.UseCookies {
		if opts.CookiesFromBrowser != "" {
			args = append(args, "--cookies-from-browser", opts.CookiesFromBrowser)
		} else if opts.CookiesFile != "" {
			args = append(args, "--cookies", opts.CookiesFile)
		}
	}
	args = append(args, "-o", "-", url)
	return args
}

// pipelineReader reads raw PCM produced by a two-process fetch→decode
// pipeline. Disposal order is pump-cancel, pump-await, decoder-kill,
// decoder-dispose, fetcher-kill, fetcher-dispose, tolerating errors at
// every step.
type pipelineReader struct {
	fetchWaiter  *procWaiter
	decodeWaiter *procWaiter
	decodeStdout io.ReadCloser
	fetchStderr  *bytes.Buffer
	decodeStderr *bytes.Buffer
	pump         *Pump
}

func (r *pipelineReader) Read(_ context.Context, buf []byte) (int, error) {
	n, err := r.decodeStdout.Read(buf)
	if err == nil {
		return n, nil
	}
	if err != io.EOF {
		return n, err
	}

	decodeErr := r.decodeWaiter.wait()
	_ = r.pump.Wait() // pump errors are best-effort; exit codes are authoritative
	fetchErr := r.fetchWaiter.wait()

	if code, ok := exitCode(decodeErr); ok && code != 0 {
		return n, &PipelineFailedError{Child: "decoder", ExitCode: code, Stderr: strings.TrimSpace(r.decodeStderr.String())}
	}
	if code, ok := exitCode(fetchErr); ok && code != 0 {
		return n, &PipelineFailedError{Child: "fetcher", ExitCode: code, Stderr: strings.TrimSpace(r.fetchStderr.String())}
	}
	return n, io.EOF
}

func (r *pipelineReader) Close() error {
	r.pump.Cancel()
	_ = r.pump.Wait()
	r.decodeWaiter.kill()
	_ = r.decodeStdout.Close()
	r.decodeWaiter.wait() //nolint:errcheck // exit status isn't meaningful after a deliberate close
	r.fetchWaiter.kill()
	r.fetchWaiter.wait() //nolint:errcheck // exit status isn't meaningful after a deliberate close
	return nil
}
