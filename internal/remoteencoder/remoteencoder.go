// Package remoteencoder provides the per-host remote encoder worker: it
// claims chunks staged by the paired transfer manager and drives the remote
// transcode command for each, one at a time.
package remoteencoder

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/five82/clustercode/internal/config"
	"github.com/five82/clustercode/internal/handoff"
	"github.com/five82/clustercode/internal/host"
	"github.com/five82/clustercode/internal/logging"
	"github.com/five82/clustercode/internal/transport"
)

// Encoder drives the remote transcode command for one host. It holds no
// state across chunks other than its binding to the host.
type Encoder struct {
	Host      *host.Host
	Transport transport.Transport
	Cfg       *config.Config

	// StageCh is the receive end of the pair's handoff slot: the paired
	// manager sends staged chunks here and the encoder claims them simply
	// by receiving. Closed by the manager once the queue is drained and the
	// final staged chunk has been claimed, or before any chunk is staged if
	// the manager fails to create the remote temp dir.
	StageCh <-chan handoff.Staged

	// DoneCh is the send end of the completion signal back to the manager.
	// Closed by the encoder when Run returns, so the manager's pull-back
	// loop always terminates.
	DoneCh chan<- handoff.Result

	// Log, if set, receives this host's per-chunk transcode lifecycle
	// events, tagged with the host by logging.HostLogger. Safe to leave nil.
	Log *logging.HostLogger
}

// Run claims staged chunks until StageCh is closed, transcoding each in
// turn. On the first remote failure it reports the error to the manager and
// returns it; the manager will surface it to the supervisor.
func (e *Encoder) Run(ctx context.Context) error {
	defer close(e.DoneCh)

	for staged := range e.StageCh {
		e.Log.Debug("claimed chunk %d", staged.Chunk.Idx)
		remoteOut := siblingEncodedPath(staged.RemotePath)
		cmd := BuildTranscodeCommand(e.Cfg, staged.RemotePath, remoteOut)

		if _, err := e.Transport.RunCommand(ctx, e.Host.Name, cmd); err != nil {
			wrapped := fmt.Errorf("host %s: transcode chunk %d: %w", e.Host, staged.Chunk.Idx, err)
			e.Log.Info("transcode failed for chunk %d: %v", staged.Chunk.Idx, err)
			select {
			case e.DoneCh <- handoff.Result{Idx: staged.Chunk.Idx, Err: wrapped}:
			case <-ctx.Done():
			}
			return wrapped
		}
		e.Log.Debug("transcoded chunk %d", staged.Chunk.Idx)

		select {
		case e.DoneCh <- handoff.Result{Idx: staged.Chunk.Idx, RemoteEncodedPath: remoteOut}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// siblingEncodedPath derives the remote output path for a transcoded chunk:
// the same directory, prefixed so it never collides with the source file
// the manager already pushed there.
func siblingEncodedPath(remoteSrc string) string {
	dir, file := path.Split(remoteSrc)
	return path.Join(dir, "enc-"+file)
}

// BuildTranscodeCommand constructs the ffmpeg command line executed on the
// remote host for one chunk: a fixed-CRF, single-pass encode of the video
// stream only (audio is handled once, locally, by the extract-audio
// collaborator), generalizing the teacher's fixed-CRF SVT-AV1 command
// construction to an arbitrary codec/CRF/preset triple.
func BuildTranscodeCommand(cfg *config.Config, remoteSrc, remoteDst string) string {
	return fmt.Sprintf(
		"ffmpeg -hide_banner -y -i %s -map 0:v:0 -c:v %s -crf %d -preset %s -an -sn %s",
		shellQuote(remoteSrc), cfg.VideoCodec, cfg.CRF, cfg.Preset, shellQuote(remoteDst),
	)
}

// shellQuote wraps a path in single quotes for safe inclusion in the shell
// command string executed on the remote host via RunCommand.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
