package transfer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/five82/clustercode/internal/chunk"
	"github.com/five82/clustercode/internal/handoff"
	"github.com/five82/clustercode/internal/host"
	"github.com/five82/clustercode/internal/queue"
	"github.com/five82/clustercode/internal/transport"
)

// fakeEncoder claims whatever the manager stages and echoes completion
// back, simulating remoteencoder.Encoder without running a transcode
// command, while still exercising the real handoff channels.
func fakeEncoder(ctx context.Context, stageCh <-chan handoff.Staged, doneCh chan<- handoff.Result) {
	defer close(doneCh)
	for {
		select {
		case staged, ok := <-stageCh:
			if !ok {
				return
			}
			doneCh <- handoff.Result{Idx: staged.Chunk.Idx, RemoteEncodedPath: staged.RemotePath}
		case <-ctx.Done():
			return
		}
	}
}

func writeSourceChunks(t *testing.T, dir string, n int) []chunk.Chunk {
	t.Helper()
	var chunks []chunk.Chunk
	for i := 0; i < n; i++ {
		name := filepath.Base(chunk.EncodedChunkPath(dir, i, ".mkv"))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("chunk"), 0644); err != nil {
			t.Fatalf("writing source chunk %d: %v", i, err)
		}
		chunks = append(chunks, chunk.Chunk{Idx: i, LocalPath: path, Filename: name})
	}
	return chunks
}

func TestManagerRunPullsBackAllChunksInOrder(t *testing.T) {
	srcDir := t.TempDir()
	workDir := t.TempDir()
	chunks := writeSourceChunks(t, srcDir, 5)

	q := queue.New(chunks)
	h := &host.Host{Name: "worker1"}
	stageCh := make(chan handoff.Staged)
	doneCh := make(chan handoff.Result)

	var mu sync.Mutex
	var completedOrder []int
	mgr := &Manager{
		Host:      h,
		Queue:     q,
		Transport: transport.NewFakeTransport(),
		WorkDir:   workDir,
		StageCh:   stageCh,
		DoneCh:    doneCh,
		OnChunkComplete: func(ec chunk.EncodedChunk) {
			mu.Lock()
			completedOrder = append(completedOrder, ec.Idx)
			mu.Unlock()
		},
	}

	ctx := context.Background()
	go fakeEncoder(ctx, stageCh, doneCh)

	result, err := mgr.Run(ctx)
	if err != nil {
		t.Fatalf("Manager.Run: %v", err)
	}
	if len(result.Encoded) != 5 {
		t.Fatalf("got %d encoded chunks, want 5", len(result.Encoded))
	}
	if len(completedOrder) != 5 {
		t.Fatalf("OnChunkComplete called %d times, want 5", len(completedOrder))
	}
	for i, idx := range completedOrder {
		if idx != i {
			t.Errorf("completedOrder[%d] = %d, want %d (one host pulls back in take order)", i, idx, i)
		}
	}

	seen := make(map[int]bool)
	for _, ec := range result.Encoded {
		if seen[ec.Idx] {
			t.Errorf("index %d returned more than once", ec.Idx)
		}
		seen[ec.Idx] = true
		if _, err := os.Stat(ec.LocalPath); err != nil {
			t.Errorf("encoded chunk %d local path missing: %v", ec.Idx, err)
		}
	}
	for i := 0; i < 5; i++ {
		if !seen[i] {
			t.Errorf("missing index %d in result", i)
		}
	}
}

func TestManagerRunFailsOnRemoteSetupFailure(t *testing.T) {
	srcDir := t.TempDir()
	workDir := t.TempDir()
	chunks := writeSourceChunks(t, srcDir, 2)

	q := queue.New(chunks)
	h := &host.Host{Name: "badhost"}
	stageCh := make(chan handoff.Staged)
	doneCh := make(chan handoff.Result)

	ft := transport.NewFakeTransport()
	ft.FailHost = "badhost"
	ft.FailOnCommandSubstr = "mkdir"
	ft.FailAfter = 0

	mgr := &Manager{
		Host:      h,
		Queue:     q,
		Transport: ft,
		WorkDir:   workDir,
		StageCh:   stageCh,
		DoneCh:    doneCh,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fakeEncoder(ctx, stageCh, doneCh)

	_, err := mgr.Run(ctx)
	if err == nil {
		t.Fatal("expected Manager.Run to fail when remote temp dir creation fails")
	}
}

func TestManagerRemovesRemoteTempDirUnlessKeepTemp(t *testing.T) {
	srcDir := t.TempDir()
	workDir := t.TempDir()
	chunks := writeSourceChunks(t, srcDir, 1)

	q := queue.New(chunks)
	h := &host.Host{Name: "worker1", KeepTemp: true}
	stageCh := make(chan handoff.Staged)
	doneCh := make(chan handoff.Result)

	// Every "rm -rf" on worker1 fails, so CleanupErr shows whether the
	// manager attempted to remove the remote temp dir.
	ft := transport.NewFakeTransport()
	ft.FailHost = "worker1"
	ft.FailOnCommandSubstr = "rm -rf"

	mgr := &Manager{
		Host:      h,
		Queue:     q,
		Transport: ft,
		WorkDir:   workDir,
		StageCh:   stageCh,
		DoneCh:    doneCh,
	}

	ctx := context.Background()
	go fakeEncoder(ctx, stageCh, doneCh)

	result, err := mgr.Run(ctx)
	if err != nil {
		t.Fatalf("Manager.Run: %v", err)
	}
	if result.CleanupErr != nil {
		t.Errorf("unexpected cleanup error with KeepTemp set: %v", result.CleanupErr)
	}

	hosts, err := host.ParseHosts("worker1", false)
	if err != nil {
		t.Fatalf("ParseHosts: %v", err)
	}
	stageCh2 := make(chan handoff.Staged)
	doneCh2 := make(chan handoff.Result)
	mgr2 := &Manager{
		Host:      hosts[0],
		Queue:     queue.New(writeSourceChunks(t, t.TempDir(), 1)),
		Transport: ft,
		WorkDir:   t.TempDir(),
		StageCh:   stageCh2,
		DoneCh:    doneCh2,
	}
	go fakeEncoder(ctx, stageCh2, doneCh2)

	result2, err := mgr2.Run(ctx)
	if err != nil {
		t.Fatalf("Manager.Run without KeepTemp: %v", err)
	}
	if result2.CleanupErr == nil {
		t.Error("expected the manager to attempt removing the remote temp dir without KeepTemp")
	}
}
