package reporter

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogReporterChunkProgressBucketsAtTenPercent(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(&buf)

	// 10 total chunks: completions at 1..10 cross 10%-buckets 10,20,...,100.
	// Every completion crosses a new bucket, so every one should log.
	for i := 1; i <= 10; i++ {
		r.ChunkProgress(ChunkProgressUpdate{Host: "h1", TotalCompleted: i, TotalChunks: 10})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10 {
		t.Fatalf("got %d logged lines, want 10: %v", len(lines), lines)
	}
}

func TestLogReporterChunkProgressSuppressesSameBucket(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(&buf)

	// 100 total chunks: the first update always logs (establishing the
	// initial bucket); completions 2..9 stay in that same 0% bucket and
	// must not log again until completion 10 crosses into the 10% bucket.
	for i := 1; i <= 9; i++ {
		r.ChunkProgress(ChunkProgressUpdate{Host: "h1", TotalCompleted: i, TotalChunks: 100})
	}

	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected exactly one log line while still inside the first bucket, got: %q", buf.String())
	}

	r.ChunkProgress(ChunkProgressUpdate{Host: "h1", TotalCompleted: 10, TotalChunks: 100})
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("expected a second log line after crossing the 10%% bucket, got: %q", buf.String())
	}
}

func TestLogReporterRunCompleteIncludesBalanceOnlyForMultipleHosts(t *testing.T) {
	var single bytes.Buffer
	r := NewLogReporter(&single)
	r.RunComplete(RunOutcome{
		HostTallies: []HostTally{{Host: "h1", ChunksCompleted: 5}},
	})
	if strings.Contains(single.String(), "Balance:") {
		t.Error("expected no balance line for a single-host run")
	}

	var multi bytes.Buffer
	r2 := NewLogReporter(&multi)
	r2.RunComplete(RunOutcome{
		HostTallies: []HostTally{
			{Host: "h1", ChunksCompleted: 8},
			{Host: "h2", ChunksCompleted: 4},
		},
	})
	if !strings.Contains(multi.String(), "Balance:") {
		t.Errorf("expected a balance line for a multi-host run, got: %q", multi.String())
	}
}
