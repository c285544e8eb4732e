// Package clustercode re-exports the internal Reporter interface and its
// associated types so callers can receive run events directly without
// importing an internal package.

package clustercode

import "github.com/five82/clustercode/internal/reporter"

// Reporter receives events during a distributed transcode run.
type Reporter = reporter.Reporter

// NullReporter discards every event.
type NullReporter = reporter.NullReporter

// RunSummary describes a run before any chunk has been dispatched.
type RunSummary = reporter.RunSummary

// SplitSummary reports the outcome of the local split.
type SplitSummary = reporter.SplitSummary

// ChunkProgressUpdate is emitted once per chunk pulled back from a host.
type ChunkProgressUpdate = reporter.ChunkProgressUpdate

// ReporterError carries a fatal error's human-readable diagnostic.
type ReporterError = reporter.ReporterError

// HostTally is one host's final chunk count.
type HostTally = reporter.HostTally

// RunOutcome summarizes a completed run.
type RunOutcome = reporter.RunOutcome
