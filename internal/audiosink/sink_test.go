package audiosink

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bufOutput is a minimal Output that records every write into a buffer.
type bufOutput struct {
	buf      bytes.Buffer
	flushes  int
	closed   bool
	writeErr error
}

func (o *bufOutput) Write(p []byte) (int, error) {
	if o.writeErr != nil {
		return 0, o.writeErr
	}
	return o.buf.Write(p)
}

func (o *bufOutput) Flush() error {
	o.flushes++
	return nil
}

func (o *bufOutput) Close() error {
	o.closed = true
	return nil
}

func TestWrite_EmptyBufferIsNoSleep(t *testing.T) {
	out := &bufOutput{}
	s := New(out)

	start := time.Now()
	err := s.Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 0, out.buf.Len())
}

func TestWrite_PacesToRealTime(t *testing.T) {
	out := &bufOutput{}
	s := New(out)
	ctx := context.Background()

	// 48000 bytes ~= 250ms of audio at BytesPerSecond.
	buf := make([]byte, BytesPerSecond/4)

	start := time.Now()
	require.NoError(t, s.Write(ctx, buf))
	// First write establishes the clock baseline and sleeps for its own
	// ~250ms; the second sleeps until ~500ms after that baseline.
	require.NoError(t, s.Write(ctx, buf))
	elapsed := time.Since(start)

	// Two quarter-second buffers should take at least ~500ms total, minus
	// a small tolerance for scheduling jitter.
	assert.GreaterOrEqual(t, elapsed, 450*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestWrite_StallResetsClockInsteadOfCatchingUp(t *testing.T) {
	out := &bufOutput{}
	s := New(out)
	ctx := context.Background()

	// First burst: 300ms of audio.
	burst := make([]byte, BytesPerSecond*300/1000)
	require.NoError(t, s.Write(ctx, burst))

	// Simulate a >1s stall by rewinding the internal lastWrite timestamp.
	s.mu.Lock()
	s.lastWrite = time.Now().Add(-1500 * time.Millisecond)
	s.mu.Unlock()

	// Second burst should not try to "catch up" the 1.5s gap; it paces
	// only against its own bytes, starting a fresh clock.
	start := time.Now()
	require.NoError(t, s.Write(ctx, burst))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestWrite_CancelDuringDelayReturnsPromptly(t *testing.T) {
	out := &bufOutput{}
	s := New(out)
	ctx, cancel := context.WithCancel(context.Background())

	buf := make([]byte, BytesPerSecond) // ~1s of audio queued on first write
	require.NoError(t, s.Write(ctx, buf))

	done := make(chan error, 1)
	go func() {
		done <- s.Write(ctx, buf)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Write did not return promptly after cancel")
	}
}

func TestComplete_FlushesAndResetsPacing(t *testing.T) {
	out := &bufOutput{}
	s := New(out)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, make([]byte, BytesPerSecond)))
	require.NoError(t, s.Complete(ctx))
	assert.Equal(t, 1, out.flushes)

	// After Complete, the next write should re-baseline rather than
	// treating itself as continuing the prior track's schedule.
	s.mu.Lock()
	started := s.started
	bytesSent := s.bytesSent
	s.mu.Unlock()
	assert.False(t, started)
	assert.Zero(t, bytesSent)
}

func TestClose_DoubleCloseIsNoOp(t *testing.T) {
	out := &bufOutput{}
	s := New(out)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, out.closed)
}

func TestWrite_ErrorFromOutputIsSurfaced(t *testing.T) {
	out := &bufOutput{writeErr: assert.AnError}
	s := New(out)

	err := s.Write(context.Background(), []byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, assert.AnError)
}
