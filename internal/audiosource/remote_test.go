package audiosource

import (
	"context"
	"testing"
	"time"
)

func TestRemoteSource_PipesDataThroughFetchAndDecode(t *testing.T) {
	src := NewRemoteSource(
		FetcherOptions{Path: "/bin/sh"},
		DecoderOptions{Path: "/bin/sh"},
		0,
	)

	reader, err := src.openWithCommands(
		context.Background(),
		[]string{"-c", "printf fetched"},
		[]string{"-c", "cat | tr 'a-z' 'A-Z'"},
	)
	if err != nil {
		t.Fatalf("openWithCommands() error = %v", err)
	}
	defer reader.Close()

	data, err := readAll(context.Background(), reader)
	if err != nil {
		t.Fatalf("readAll() error = %v", err)
	}
	if string(data) != "FETCHED" {
		t.Errorf("data = %q, want %q", string(data), "FETCHED")
	}
}

func TestRemoteSource_DecoderNonZeroExitIsPipelineFailed(t *testing.T) {
	src := NewRemoteSource(
		FetcherOptions{Path: "/bin/sh"},
		DecoderOptions{Path: "/bin/sh"},
		0,
	)

	reader, err := src.openWithCommands(
		context.Background(),
		[]string{"-c", "printf data"},
		[]string{"-c", "cat >/dev/null; echo bad >&2; exit 7"},
	)
	if err != nil {
		t.Fatalf("openWithCommands() error = %v", err)
	}
	defer reader.Close()

	_, err = readAll(context.Background(), reader)
	pf, ok := err.(*PipelineFailedError)
	if !ok {
		t.Fatalf("error = %T, want *PipelineFailedError", err)
	}
	if pf.ExitCode != 7 || pf.Child != "decoder" {
		t.Errorf("PipelineFailedError = %+v, want ExitCode 7, Child decoder", pf)
	}
}

func TestRemoteSource_CloseTerminatesBothProcessesPromptly(t *testing.T) {
	src := NewRemoteSource(
		FetcherOptions{Path: "/bin/sh"},
		DecoderOptions{Path: "/bin/sh"},
		0,
	)

	reader, err := src.openWithCommands(
		context.Background(),
		[]string{"-c", "while true; do printf x; sleep 0.05; done"},
		[]string{"-c", "cat"},
	)
	if err != nil {
		t.Fatalf("openWithCommands() error = %v", err)
	}

	closed := make(chan error, 1)
	go func() { closed <- reader.Close() }()

	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not terminate both processes within 2s")
	}
}
