// Package transport provides the remote-shell and file-copy collaborator.
// It is treated as a black box by the distribution engine: only the
// interface below is consumed. Authentication is out of scope and assumed
// preconfigured (non-interactive key-based).
package transport

import "context"

// Transport executes commands and moves files between the local machine and
// a named remote host.
type Transport interface {
	// RunCommand executes a shell command string on the named host and
	// returns its captured output. A non-zero exit is reported as an error
	// that includes the captured output.
	RunCommand(ctx context.Context, hostname, command string) (output string, err error)

	// CopyToHost transfers a local file to a path on the named host.
	CopyToHost(ctx context.Context, hostname, localPath, remotePath string) error

	// CopyFromHost transfers a file from the named host to a local path.
	CopyFromHost(ctx context.Context, hostname, remotePath, localPath string) error
}
