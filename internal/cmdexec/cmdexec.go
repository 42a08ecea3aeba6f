// Package cmdexec wraps external command execution behind a swappable
// runner so router commands (uci, wifi, ip, reboot) can be faked in tests.
package cmdexec

import (
	"context"
	"os/exec"
	"strings"
)

// Runner abstracts external command execution.
type Runner interface {
	Exists(name string) bool
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
	Run(ctx context.Context, name string, args ...string) error
}

type defaultRunner struct{}

func (defaultRunner) Exists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func (defaultRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (defaultRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (defaultRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

var runner Runner = defaultRunner{}

// SetRunner swaps the active runner. Returns a restore func.
func SetRunner(r Runner) (restore func()) {
	prev := runner
	runner = r
	return func() { runner = prev }
}

func Exists(name string) bool {
	return runner.Exists(name)
}

func Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return runner.Output(ctx, name, args...)
}

func CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return runner.CombinedOutput(ctx, name, args...)
}

func Run(ctx context.Context, name string, args ...string) error {
	return runner.Run(ctx, name, args...)
}

// Text runs a command and returns its trimmed combined output.
// Failures degrade to an empty string; router reads are best-effort.
func Text(ctx context.Context, name string, args ...string) string {
	out, err := runner.CombinedOutput(ctx, name, args...)
	if err != nil && len(out) == 0 {
		return ""
	}
	return strings.TrimSpace(string(out))
}
