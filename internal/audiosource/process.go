package audiosource

import (
	"os/exec"
	"sync"
)

// procWaiter wraps exec.Cmd.Wait so it is safe to call more than once
// from both a Read's EOF handling and a later Close.
type procWaiter struct {
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

func (w *procWaiter) wait() error {
	w.once.Do(func() {
		w.err = w.cmd.Wait()
	})
	return w.err
}

func (w *procWaiter) kill() {
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
}

func exitCode(err error) (int, bool) {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
