// Package transfer provides the per-host transfer manager: the I/O side of
// a host, owning its remote temp directory and the bidirectional byte
// movement, pipelined one chunk ahead of the paired remote encoder.
package transfer

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/five82/clustercode/internal/chunk"
	"github.com/five82/clustercode/internal/handoff"
	"github.com/five82/clustercode/internal/host"
	"github.com/five82/clustercode/internal/logging"
	"github.com/five82/clustercode/internal/queue"
	"github.com/five82/clustercode/internal/transport"
)

// Manager owns one host's remote temp directory and pipelines pushing
// source chunks against pulling back encoded ones.
type Manager struct {
	Host      *host.Host
	Queue     *queue.ChunkQueue
	Transport transport.Transport

	// WorkDir is the local directory encoded chunks are pulled back into
	// (chunk.EncodedChunksDir of the run's work directory).
	WorkDir string

	// StageCh is the send end of the pair's handoff slot.
	StageCh chan<- handoff.Staged

	// DoneCh is the receive end of the completion signal from the paired
	// encoder.
	DoneCh <-chan handoff.Result

	// OnChunkComplete, if set, is called synchronously from the pull-back
	// loop immediately after each chunk is recorded, so a caller can drive
	// live progress reporting without waiting for Run to return.
	OnChunkComplete func(chunk.EncodedChunk)

	// Log, if set, receives this host's remote-directory and transfer
	// lifecycle events, tagged with the host by logging.HostLogger. Safe
	// to leave nil.
	Log *logging.HostLogger
}

// RunResult is what a completed (or aborted) Manager.Run produced.
type RunResult struct {
	Encoded []chunk.EncodedChunk

	// CleanupErr holds a failure to remove the host's remote temp
	// directory. Per the run's error policy this is never fatal on its
	// own; the supervisor logs it, aggregated across hosts.
	CleanupErr error
}

// Run drives the manager end to end: create the remote temp directory,
// pipeline push/stage against pull-back until the queue drains, then clean
// up. StageCh is closed here once the queue is drained, which is also the
// paired encoder's termination signal; if the remote temp directory cannot
// be created, StageCh is closed before any chunk is taken.
func (m *Manager) Run(ctx context.Context) (RunResult, error) {
	remoteDir := m.Host.RemoteTempDir()
	if _, err := m.Transport.RunCommand(ctx, m.Host.Name, fmt.Sprintf("mkdir -p %s", remoteDir)); err != nil {
		close(m.StageCh)
		return RunResult{}, fmt.Errorf("host %s: create remote temp dir: %w", m.Host, err)
	}
	m.Log.Info("remote temp dir created: %s", remoteDir)

	var encoded []chunk.EncodedChunk

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(m.StageCh)

		for {
			c, ok := m.Queue.Take()
			if !ok {
				return nil
			}

			remotePath := path.Join(remoteDir, c.Filename)
			if err := m.Transport.CopyToHost(gctx, m.Host.Name, c.LocalPath, remotePath); err != nil {
				return fmt.Errorf("host %s: push chunk %d: %w", m.Host, c.Idx, err)
			}
			m.Log.Debug("pushed chunk %d to %s", c.Idx, remotePath)

			// Sending on an unbuffered channel blocks until the encoder
			// receives (claims) it, which happens only once the encoder is
			// done with whatever it was previously transcoding. This is
			// exactly the "wait for encoder to claim before the next take"
			// rule, and it bounds in-flight work at this host to one
			// chunk encoding plus one staged: the manager cannot call Take
			// again until this send completes.
			select {
			case m.StageCh <- handoff.Staged{Chunk: c, RemotePath: remotePath}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for res := range m.DoneCh {
			if res.Err != nil {
				return res.Err
			}

			ext := filepath.Ext(res.RemoteEncodedPath)
			localPath := chunk.EncodedChunkPath(m.WorkDir, res.Idx, ext)
			if err := m.Transport.CopyFromHost(gctx, m.Host.Name, res.RemoteEncodedPath, localPath); err != nil {
				return fmt.Errorf("host %s: pull chunk %d: %w", m.Host, res.Idx, err)
			}

			ec := chunk.EncodedChunk{Idx: res.Idx, LocalPath: localPath}
			encoded = append(encoded, ec)
			m.Log.Debug("pulled back chunk %d", res.Idx)
			if m.OnChunkComplete != nil {
				m.OnChunkComplete(ec)
			}
		}
		return nil
	})

	runErr := g.Wait()

	result := RunResult{Encoded: encoded}
	if !m.Host.KeepTemp {
		if _, err := m.Transport.RunCommand(ctx, m.Host.Name, fmt.Sprintf("rm -rf %s", remoteDir)); err != nil {
			result.CleanupErr = fmt.Errorf("host %s: remove remote temp dir: %w", m.Host, err)
		} else {
			m.Log.Info("remote temp dir removed: %s", remoteDir)
		}
	}

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}
