package reporter

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/montanaflynn/stats"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"

	"github.com/five82/clustercode/internal/util"
)

// TerminalReporter renders a per-host progress row via mpb plus an overall
// chunk-completion bar, and prints a human-readable summary at the end.
type TerminalReporter struct {
	mu sync.Mutex

	verbose bool
	cyan    *color.Color
	green   *color.Color
	yellow  *color.Color
	red     *color.Color
	bold    *color.Color
	dim     *color.Color

	progress   *mpb.Progress
	overall    *mpb.Bar
	totalFn    int
	hostBars   map[string]*mpb.Bar
	hostCounts map[string]*int64
}

// NewTerminalReporter creates a terminal reporter with verbose mode disabled.
func NewTerminalReporter() *TerminalReporter {
	return NewTerminalReporterVerbose(false)
}

// NewTerminalReporterVerbose creates a terminal reporter with configurable verbose mode.
func NewTerminalReporterVerbose(verbose bool) *TerminalReporter {
	return &TerminalReporter{
		verbose:    verbose,
		cyan:       color.New(color.FgCyan, color.Bold),
		green:      color.New(color.FgGreen),
		yellow:     color.New(color.FgYellow, color.Bold),
		red:        color.New(color.FgRed, color.Bold),
		bold:       color.New(color.Bold),
		dim:        color.New(color.Faint),
		hostBars:   make(map[string]*mpb.Bar),
		hostCounts: make(map[string]*int64),
	}
}

const labelWidth = 14

func (r *TerminalReporter) printLabel(label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", labelWidth, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) RunStarted(s RunSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("RUN")
	r.printLabel("Input:", s.InputFile)
	r.printLabel("Output:", s.OutputFile)
	r.printLabel("Hosts:", fmt.Sprintf("%d", len(s.Hosts)))
	r.printLabel("Chunk length:", fmt.Sprintf("%ds", s.ChunkLengthSecs))
}

func (r *TerminalReporter) SplitComplete(s SplitSummary) {
	r.mu.Lock()
	r.totalFn = s.ChunkCount
	r.progress = mpb.New(mpb.WithWidth(40))
	r.overall = r.progress.AddBar(int64(s.ChunkCount),
		mpb.PrependDecorators(decor.Name("overall", decor.WC{W: 12})),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)
	r.mu.Unlock()

	r.printLabel("Chunks:", fmt.Sprintf("%d", s.ChunkCount))
}

func (r *TerminalReporter) HostStarted(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		r.progress = mpb.New(mpb.WithWidth(40))
	}

	count := new(int64)
	r.hostCounts[host] = count

	bar := r.progress.AddBar(int64(r.totalFn),
		mpb.PrependDecorators(decor.Name(host, decor.WC{W: 16})),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)
	r.hostBars[host] = bar
}

func (r *TerminalReporter) ChunkProgress(u ChunkProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bar, ok := r.hostBars[u.Host]; ok {
		bar.SetCurrent(int64(u.HostCompleted))
	}
	if r.overall != nil {
		r.overall.SetCurrent(int64(u.TotalCompleted))
	}
}

func (r *TerminalReporter) RunComplete(o RunOutcome) {
	r.mu.Lock()
	if r.progress != nil {
		r.progress.Wait()
		r.progress = nil
	}
	r.mu.Unlock()

	reduction := util.CalculateSizeReduction(o.OriginalSize, o.EncodedSize)

	fmt.Println()
	_, _ = r.cyan.Println("RESULTS")
	r.printLabel("Output:", o.OutputFile)
	r.printLabel("Size:", fmt.Sprintf("%s -> %s (%.1f%% reduction)",
		util.FormatBytesReadable(o.OriginalSize), util.FormatBytesReadable(o.EncodedSize), reduction))
	r.printLabel("Time:", util.FormatDurationFromSecs(int64(o.TotalTime.Seconds())))

	if len(o.HostTallies) > 1 {
		counts := make([]float64, len(o.HostTallies))
		for i, t := range o.HostTallies {
			counts[i] = float64(t.ChunksCompleted)
		}
		mean, _ := stats.Mean(counts)
		stddev, _ := stats.StandardDeviation(counts)
		r.printLabel("Balance:", fmt.Sprintf("mean %.1f chunks/host, stddev %.1f", mean, stddev))
	}

	for _, t := range o.HostTallies {
		fmt.Printf("  - %s: %d chunks\n", t.Host, t.ChunksCompleted)
	}
}

func (r *TerminalReporter) Warning(message string) {
	fmt.Println()
	_, _ = r.yellow.Printf("WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	_, _ = fmt.Fprintln(os.Stderr)
	_, _ = r.red.Fprintf(os.Stderr, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	fmt.Printf("  %s %s\n", r.dim.Sprint("›"), r.dim.Sprint(message))
}
