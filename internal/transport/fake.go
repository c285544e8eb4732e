package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// quotedPath matches single-quoted shell tokens, the form remoteencoder
// builds its transcode command's input/output paths with.
var quotedPath = regexp.MustCompile(`'([^']*)'`)

// FakeTransport is an in-memory Transport for tests: CopyToHost/CopyFromHost
// move real file bytes between local paths, RunCommand sleeps, optionally
// fails, and simulates a transcode by copying a file. It lets the distribution engine be tested without a
// real ssh/scp/ffmpeg toolchain, mirroring the teacher's habit of isolating
// external-binary calls behind a narrow interface.
type FakeTransport struct {
	mu sync.Mutex

	// PerChunkDelay simulates remote command latency, keyed by hostname. It
	// is applied to every RunCommand call; file copies are not delayed.
	PerChunkDelay map[string]time.Duration

	// FailHost, if set, makes RunCommand return an error for the named host
	// whose command contains FailOnCommandSubstr (or always, if empty) after
	// FailAfter successful RunCommand calls on that host.
	FailHost            string
	FailOnCommandSubstr string
	FailAfter           int

	runCount map[string]int
}

// NewFakeTransport creates a FakeTransport with no artificial delay or failures.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		PerChunkDelay: make(map[string]time.Duration),
		runCount:      make(map[string]int),
	}
}

// RunCommand simulates a remote transcode: it sleeps PerChunkDelay[hostname],
// then, unless configured to fail, copies the file named by the first
// single-quoted token of command onto the file named by the last one (the
// quoted input and output paths built by remoteencoder), so CopyFromHost has
// something real to fetch. Commands with fewer than two quoted tokens only
// sleep.
func (t *FakeTransport) RunCommand(ctx context.Context, hostname, command string) (string, error) {
	t.mu.Lock()
	delay := t.PerChunkDelay[hostname]
	t.runCount[hostname]++
	count := t.runCount[hostname]
	t.mu.Unlock()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if t.FailHost == hostname && count > t.FailAfter {
		if t.FailOnCommandSubstr == "" || strings.Contains(command, t.FailOnCommandSubstr) {
			return "", fmt.Errorf("simulated remote transcode failure on %s: %s", hostname, command)
		}
	}

	// Simulate a transcode in place of actually invoking ffmpeg: a
	// transcode command quotes exactly its source and destination paths,
	// so copying the first onto the last stands in for "produced output."
	if matches := quotedPath.FindAllStringSubmatch(command, -1); len(matches) >= 2 {
		src := matches[0][1]
		dst := matches[len(matches)-1][1]
		if err := copyFile(src, dst); err != nil {
			return "", fmt.Errorf("fake transport: simulate transcode on %s: %w", hostname, err)
		}
	}

	return "", nil
}

// CopyToHost and CopyFromHost are implemented as plain local file copies: the
// "remote" path is just another local path, since FakeTransport never
// leaves the machine.
func (t *FakeTransport) CopyToHost(ctx context.Context, hostname, localPath, remotePath string) error {
	return copyFile(localPath, remotePath)
}

func (t *FakeTransport) CopyFromHost(ctx context.Context, hostname, remotePath, localPath string) error {
	return copyFile(remotePath, localPath)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fake transport: open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("fake transport: mkdir for %s: %w", dst, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("fake transport: create %s: %w", dst, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("fake transport: copy %s -> %s: %w", src, dst, err)
	}
	return nil
}

