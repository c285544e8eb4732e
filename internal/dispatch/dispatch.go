// Package dispatch wires the chunk queue and per-host pairs together, waits
// for collective completion, and presents an ordered list of EncodedChunks
// to the concatenation collaborator.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	nlerrors "gitlab.com/NebulousLabs/errors"

	"github.com/five82/clustercode/internal/chunk"
	"github.com/five82/clustercode/internal/config"
	"github.com/five82/clustercode/internal/handoff"
	"github.com/five82/clustercode/internal/host"
	"github.com/five82/clustercode/internal/logging"
	"github.com/five82/clustercode/internal/queue"
	"github.com/five82/clustercode/internal/remoteencoder"
	"github.com/five82/clustercode/internal/transfer"
	"github.com/five82/clustercode/internal/transport"
)

// HostProgress is reported once per chunk pulled back, so a caller can
// render per-host and overall throughput without reaching into pairs.
type HostProgress struct {
	Host           string
	ChunkIdx       int
	HostCompleted  int // chunks this host has completed so far
	TotalCompleted int // chunks completed across all hosts so far
	TotalChunks    int
}

// HostTally is one host's final chunk count, for a post-run balance report.
type HostTally struct {
	Host            string
	ChunksCompleted int
}

// Supervisor spawns one (manager, encoder) pair per host, seeds the chunk
// queue, and awaits collective completion.
type Supervisor struct {
	Hosts     []*host.Host
	Transport transport.Transport
	Cfg       *config.Config
	WorkDir   string // local chunk.EncodedChunksDir destination

	// OnProgress, if set, is called after every chunk pulled back by any
	// pair. It must be safe for concurrent use.
	OnProgress func(HostProgress)

	// Log, if set, is scoped per host via logging.Logger.ForHost and handed
	// to each pair's manager and encoder, so the run's log file carries a
	// per-host, per-chunk trail independent of the user-facing reporter.
	// Safe to leave nil.
	Log *logging.Logger
}

// Run populates the queue from chunks, spawns one pair per host, and blocks
// until every pair terminates. On success it returns the EncodedChunks
// sorted by index and a per-host tally. On any pair's fatal error, it
// aborts the remaining pairs and returns the first observed error;
// cleanup failures across hosts are composed into one non-fatal error.
func (s *Supervisor) Run(ctx context.Context, chunks []chunk.Chunk) (encoded []chunk.EncodedChunk, tallies []HostTally, cleanupErr error, err error) {
	q := queue.New(chunks)
	total := len(chunks)

	g, gctx := errgroup.WithContext(ctx)

	var progressMu sync.Mutex
	hostCompleted := make(map[string]int, len(s.Hosts))
	totalCompleted := 0

	type pairOutput struct {
		host    *host.Host
		result  transfer.RunResult
		cleanup error
	}

	outputs := make(chan pairOutput, len(s.Hosts))

	for _, h := range s.Hosts {
		h := h
		stageCh := make(chan handoff.Staged)
		doneCh := make(chan handoff.Result)
		hlog := s.Log.ForHost(h.String())
		hlog.Info("pair started")

		mgr := &transfer.Manager{
			Host:      h,
			Queue:     q,
			Transport: s.Transport,
			WorkDir:   s.WorkDir,
			StageCh:   stageCh,
			DoneCh:    doneCh,
			Log:       hlog,
			OnChunkComplete: func(ec chunk.EncodedChunk) {
				if s.OnProgress == nil {
					return
				}
				progressMu.Lock()
				hostCompleted[h.String()]++
				totalCompleted++
				update := HostProgress{
					Host:           h.String(),
					ChunkIdx:       ec.Idx,
					HostCompleted:  hostCompleted[h.String()],
					TotalCompleted: totalCompleted,
					TotalChunks:    total,
				}
				progressMu.Unlock()
				s.OnProgress(update)
			},
		}
		enc := &remoteencoder.Encoder{
			Host:      h,
			Transport: s.Transport,
			Cfg:       s.Cfg,
			StageCh:   stageCh,
			DoneCh:    doneCh,
			Log:       hlog,
		}

		g.Go(func() error {
			return enc.Run(gctx)
		})

		g.Go(func() error {
			result, runErr := mgr.Run(gctx)
			outputs <- pairOutput{host: h, result: result, cleanup: result.CleanupErr}
			if runErr != nil {
				hlog.Info("pair terminated with error: %v", runErr)
				return fmt.Errorf("host %s: %w", h, runErr)
			}
			hlog.Info("pair terminated: %d chunks completed", len(result.Encoded))
			return nil
		})
	}

	fatalErr := g.Wait()
	close(outputs)

	var cleanupErrs []error
	for out := range outputs {
		encoded = append(encoded, out.result.Encoded...)
		tallies = append(tallies, HostTally{Host: out.host.String(), ChunksCompleted: len(out.result.Encoded)})
		if out.cleanup != nil {
			cleanupErrs = append(cleanupErrs, out.cleanup)
		}
	}

	if len(cleanupErrs) > 0 {
		cleanupErr = nlerrors.Compose(cleanupErrs...)
	}

	if fatalErr != nil {
		// On abort, encoded chunks already pulled back from healthy hosts
		// are not handed to the concat collaborator.
		return nil, tallies, cleanupErr, fatalErr
	}

	sort.Slice(encoded, func(i, j int) bool { return encoded[i].Idx < encoded[j].Idx })

	return encoded, tallies, cleanupErr, nil
}
