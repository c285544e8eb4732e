package transport

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// SSHTransport implements Transport by shelling out to the system's ssh and
// scp binaries, in the same command-building style the rest of this
// repository uses for ffmpeg: build an argument slice, run it, wrap a
// non-zero exit with the captured combined output.
type SSHTransport struct {
	// SSHOptions are extra arguments passed to both ssh and scp invocations,
	// e.g. []string{"-o", "StrictHostKeyChecking=accept-new"}.
	SSHOptions []string
}

// NewSSHTransport creates an SSHTransport with sensible defaults for
// non-interactive, preconfigured key-based authentication.
func NewSSHTransport() *SSHTransport {
	return &SSHTransport{
		SSHOptions: []string{
			"-o", "BatchMode=yes",
			"-o", "StrictHostKeyChecking=accept-new",
		},
	}
}

// RunCommand executes command on hostname via ssh.
func (t *SSHTransport) RunCommand(ctx context.Context, hostname, command string) (string, error) {
	args := append(append([]string{}, t.SSHOptions...), hostname, command)
	cmd := exec.CommandContext(ctx, "ssh", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ssh %s %q failed: %w\noutput: %s", hostname, command, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// CopyToHost copies localPath to hostname:remotePath via scp.
func (t *SSHTransport) CopyToHost(ctx context.Context, hostname, localPath, remotePath string) error {
	args := append(append([]string{}, t.SSHOptions...), localPath, fmt.Sprintf("%s:%s", hostname, remotePath))
	cmd := exec.CommandContext(ctx, "scp", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("scp %s -> %s:%s failed: %w\noutput: %s", localPath, hostname, remotePath, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CopyFromHost copies hostname:remotePath to localPath via scp.
func (t *SSHTransport) CopyFromHost(ctx context.Context, hostname, remotePath, localPath string) error {
	args := append(append([]string{}, t.SSHOptions...), fmt.Sprintf("%s:%s", hostname, remotePath), localPath)
	cmd := exec.CommandContext(ctx, "scp", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("scp %s:%s -> %s failed: %w\noutput: %s", hostname, remotePath, localPath, err, strings.TrimSpace(string(out)))
	}
	return nil
}
