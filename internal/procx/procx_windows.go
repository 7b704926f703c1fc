//go:build windows

package procx

import "os/exec"

// Windows has no process groups to signal; the default Cancel kills the
// direct child and WaitDelay bounds the rest.
func setProcessGroup(cmd *exec.Cmd) {}
