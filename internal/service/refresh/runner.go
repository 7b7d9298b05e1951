package refresh

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes an external command and returns its separated output
// streams. Tests substitute a fake so no real process is spawned.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	Dir string
}

// Run starts the command and waits for it. The process is killed when ctx
// is done.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
