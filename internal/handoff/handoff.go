// Package handoff defines the single-slot rendezvous types shared by a
// pair's transfer manager and remote encoder. The channels themselves are
// created and owned by the dispatch supervisor, which wires one end of each
// to the manager and the other to the encoder.
package handoff

import "github.com/five82/clustercode/internal/chunk"

// Staged is placed on a pair's handoff slot by the transfer manager once a
// chunk's bytes are resident on the host, and claimed by the remote encoder
// the moment it receives from the channel carrying this type.
type Staged struct {
	Chunk      chunk.Chunk
	RemotePath string
}

// Result is sent back by the remote encoder once a claimed chunk has
// finished transcoding, or has failed. Err is non-nil only on failure.
type Result struct {
	Idx               int
	RemoteEncodedPath string
	Err               error
}
