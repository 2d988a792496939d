//go:build !unix

package sandbox

import "os/exec"

// configureProcess keeps the exec.CommandContext default of killing the child
func configureProcess(cmd *exec.Cmd) {}
