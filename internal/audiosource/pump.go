package audiosource

import (
	"io"
)

// DefaultPumpBufferSize is the buffer size used when linking a fetcher's
// stdout to a decoder's stdin: large enough to keep the decoder fed
// without the fetcher blocking on backpressure, small enough to bound
// memory per in-flight pipeline.
const DefaultPumpBufferSize = 80 * 1024

// Pump is a background byte-copy loop linking two child processes' stdio
// streams. It runs until the source hits EOF, a copy error occurs, or
// Cancel is called.
type Pump struct {
	src     io.ReadCloser
	dst     io.WriteCloser
	bufSize int
	doneCh  chan struct{}
	err     error
}

// NewPump creates a Pump copying from src to dst. bufSize <= 0 uses
// DefaultPumpBufferSize.
func NewPump(src io.ReadCloser, dst io.WriteCloser, bufSize int) *Pump {
	if bufSize <= 0 {
		bufSize = DefaultPumpBufferSize
	}
	return &Pump{
		src:     src,
		dst:     dst,
		bufSize: bufSize,
		doneCh:  make(chan struct{}),
	}
}

// Start launches the copy loop in the background. Call Wait to block until
// it finishes.
func (p *Pump) Start() {
	go func() {
		defer close(p.doneCh)
		defer p.dst.Close() //nolint:errcheck // decoder observes the close as its own stdin EOF
		buf := make([]byte, p.bufSize)
		_, err := io.CopyBuffer(p.dst, p.src, buf)
		if err != nil && err != io.EOF {
			p.err = err
		}
	}()
}

// Cancel interrupts an in-flight copy by closing the source reader, which
// unblocks any pending Read with an error. Safe to call more than once.
func (p *Pump) Cancel() {
	_ = p.src.Close()
}

// Wait blocks until the copy loop has finished and returns its error, if
// any. io.EOF is not reported as an error.
func (p *Pump) Wait() error {
	<-p.doneCh
	return p.err
}
