package reporter

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/five82/clustercode/internal/util"
)

// LogReporter writes run events to a log file, at a coarser grain than the
// terminal reporter (no per-chunk line, since host bars already cover that
// interactively).
type LogReporter struct {
	w                 io.Writer
	mu                sync.Mutex
	lastLoggedPercent map[string]int
}

// NewLogReporter creates a log reporter that writes to w.
func NewLogReporter(w io.Writer) *LogReporter {
	return &LogReporter{
		w:                 w,
		lastLoggedPercent: make(map[string]int),
	}
}

func (r *LogReporter) log(level, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(r.w, "%s [%s] %s\n", timestamp, level, msg)
}

func (r *LogReporter) RunStarted(s RunSummary) {
	r.log("INFO", "=== RUN ===")
	r.log("INFO", "Input: %s", s.InputFile)
	r.log("INFO", "Output: %s", s.OutputFile)
	r.log("INFO", "Hosts: %v", s.Hosts)
	r.log("INFO", "Chunk length: %ds", s.ChunkLengthSecs)
}

func (r *LogReporter) SplitComplete(s SplitSummary) {
	r.log("INFO", "Split into %d chunks", s.ChunkCount)
}

func (r *LogReporter) HostStarted(host string) {
	r.log("INFO", "Host %s: pair started", host)
}

func (r *LogReporter) ChunkProgress(u ChunkProgressUpdate) {
	if u.TotalChunks == 0 {
		return
	}
	percent := (u.TotalCompleted * 100) / u.TotalChunks
	bucket := (percent / 10) * 10

	r.mu.Lock()
	last, seen := r.lastLoggedPercent["overall"]
	shouldLog := !seen || bucket > last
	if shouldLog {
		r.lastLoggedPercent["overall"] = bucket
	}
	r.mu.Unlock()

	if shouldLog {
		r.log("INFO", "Progress: %d/%d chunks (%d%%), host %s completed %d",
			u.TotalCompleted, u.TotalChunks, percent, u.Host, u.HostCompleted)
	}
}

func (r *LogReporter) RunComplete(o RunOutcome) {
	reduction := util.CalculateSizeReduction(o.OriginalSize, o.EncodedSize)

	r.log("INFO", "=== RESULTS ===")
	r.log("INFO", "Output: %s", o.OutputFile)
	r.log("INFO", "Size: %s -> %s (%.1f%% reduction)",
		util.FormatBytesReadable(o.OriginalSize), util.FormatBytesReadable(o.EncodedSize), reduction)
	r.log("INFO", "Time: %s", util.FormatDurationFromSecs(int64(o.TotalTime.Seconds())))

	if len(o.HostTallies) > 1 {
		counts := make([]float64, len(o.HostTallies))
		for i, t := range o.HostTallies {
			counts[i] = float64(t.ChunksCompleted)
		}
		mean, _ := stats.Mean(counts)
		stddev, _ := stats.StandardDeviation(counts)
		r.log("INFO", "Balance: mean %.1f chunks/host, stddev %.1f", mean, stddev)
	}

	for _, t := range o.HostTallies {
		r.log("INFO", "  %s: %d chunks", t.Host, t.ChunksCompleted)
	}
}

func (r *LogReporter) Warning(message string) {
	r.log("WARN", "%s", message)
}

func (r *LogReporter) Error(err ReporterError) {
	r.log("ERROR", "%s: %s", err.Title, err.Message)
	if err.Context != "" {
		r.log("ERROR", "  Context: %s", err.Context)
	}
	if err.Suggestion != "" {
		r.log("ERROR", "  Suggestion: %s", err.Suggestion)
	}
}

func (r *LogReporter) Verbose(message string) {
	r.log("DEBUG", "%s", message)
}
