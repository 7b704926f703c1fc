// Package procx builds external tool commands whose lifetime is bounded by
// their context, including any children they spawn.
package procx

import (
	"context"
	"os/exec"
	"time"
)

// WaitDelay bounds how long Wait keeps draining output pipes after the
// process was killed. Grandchildren holding the pipes are not waited for
// past this point.
const WaitDelay = 5 * time.Second

// Command returns an exec.Cmd that, when ctx is done, kills the whole
// process group on unix and stops waiting for its output after WaitDelay.
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = WaitDelay
	setProcessGroup(cmd)
	return cmd
}
