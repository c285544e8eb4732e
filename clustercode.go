package clustercode

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/five82/clustercode/internal/chunk"
	"github.com/five82/clustercode/internal/config"
	"github.com/five82/clustercode/internal/dispatch"
	"github.com/five82/clustercode/internal/host"
	"github.com/five82/clustercode/internal/logging"
	"github.com/five82/clustercode/internal/reporter"
	"github.com/five82/clustercode/internal/transport"
	"github.com/five82/clustercode/internal/util"
	"github.com/five82/clustercode/internal/validation"
)

// durationValidationToleranceSecs bounds how far the final output's
// duration may drift from the source input's before validation fails.
const durationValidationToleranceSecs = 5.0

// Runner is the main entry point for a distributed transcode.
type Runner struct {
	cfg *config.Config
}

// Option configures a Runner.
type Option func(*config.Config)

// New creates a Runner with the given options applied over the defaults.
func New(opts ...Option) (*Runner, error) {
	cfg := config.NewConfig("", "", "")
	for _, opt := range opts {
		opt(cfg)
	}
	return &Runner{cfg: cfg}, nil
}

// WithChunkLength sets the target chunk length in seconds.
func WithChunkLength(secs uint) Option {
	return func(c *config.Config) { c.ChunkLengthSecs = secs }
}

// WithVideoCodec sets the ffmpeg video codec used for the remote transcode.
func WithVideoCodec(codec string) Option {
	return func(c *config.Config) { c.VideoCodec = codec }
}

// WithCRF sets the remote encode's CRF quality value.
func WithCRF(crf uint8) Option {
	return func(c *config.Config) { c.CRF = crf }
}

// WithPreset sets the remote encode's speed preset.
func WithPreset(preset string) Option {
	return func(c *config.Config) { c.Preset = preset }
}

// WithTempDir sets the local temp directory root a run's work directory is
// created under.
func WithTempDir(dir string) Option {
	return func(c *config.Config) { c.TempDir = dir }
}

// WithKeepTemp retains both local and remote temp directories after the run
// terminates, for inspection or debugging.
func WithKeepTemp() Option {
	return func(c *config.Config) { c.KeepTemp = true }
}

// WithVerbose enables debug-level log output.
func WithVerbose() Option {
	return func(c *config.Config) { c.Verbose = true }
}

// Result summarizes one completed run.
type Result struct {
	OutputFile           string
	OriginalSize         uint64
	EncodedSize          uint64
	SizeReductionPercent float64
	TotalTime            time.Duration
	HostTallies          []HostTally
	ValidationPassed     bool
}

// Run splits input into chunks, dispatches them across hostSpec's hosts,
// concatenates the returned encoded chunks with the original audio, and
// validates the result. rep may be nil, in which case events are discarded.
// sysLog may also be nil, in which case per-host system log lines are
// simply dropped; when set, each host pair logs its lifecycle to it
// independently of rep.
func (r *Runner) Run(ctx context.Context, input, output, hostSpec string, rep Reporter, sysLog *logging.Logger) (*Result, error) {
	cfg := *r.cfg
	cfg.InputPath = input
	cfg.OutputPath = output
	cfg.HostSpec = hostSpec

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if rep == nil {
		rep = reporter.NullReporter{}
	}

	hosts, err := host.ParseHosts(cfg.HostSpec, cfg.KeepTemp)
	if err != nil {
		return nil, fmt.Errorf("parsing hosts: %w", err)
	}

	hostNames := make([]string, len(hosts))
	for i, h := range hosts {
		hostNames[i] = h.String()
	}

	rep.RunStarted(reporter.RunSummary{
		InputFile:       input,
		OutputFile:      output,
		Hosts:           hostNames,
		ChunkLengthSecs: cfg.ChunkLengthSecs,
	})

	start := time.Now()

	workDir, err := util.CreateTempDir(cfg.GetTempDir(), "clustercode")
	if err != nil {
		return nil, fmt.Errorf("creating local work directory: %w", err)
	}
	cleanupLocal := func() {
		if !cfg.KeepTemp {
			_ = workDir.Cleanup()
		}
	}

	if err := chunk.CreateWorkDir(workDir.Path()); err != nil {
		cleanupLocal()
		return nil, fmt.Errorf("preparing work directory: %w", err)
	}

	chunks, err := chunk.Split(ctx, input, cfg.ChunkLengthSecs, workDir.Path())
	if err != nil {
		cleanupLocal()
		return nil, fmt.Errorf("splitting input: %w", err)
	}
	rep.SplitComplete(reporter.SplitSummary{ChunkCount: len(chunks)})

	if err := chunk.ExtractAudio(ctx, input, workDir.Path()); err != nil {
		cleanupLocal()
		return nil, fmt.Errorf("extracting audio: %w", err)
	}

	for _, name := range hostNames {
		rep.HostStarted(name)
	}

	sup := &dispatch.Supervisor{
		Hosts:     hosts,
		Transport: transport.NewSSHTransport(),
		Cfg:       &cfg,
		WorkDir:   chunk.EncodedChunksDir(workDir.Path()),
		Log:       sysLog,
		OnProgress: func(p dispatch.HostProgress) {
			rep.ChunkProgress(reporter.ChunkProgressUpdate{
				Host:           p.Host,
				ChunkIdx:       p.ChunkIdx,
				HostCompleted:  p.HostCompleted,
				TotalCompleted: p.TotalCompleted,
				TotalChunks:    p.TotalChunks,
			})
		},
	}

	encoded, tallies, cleanupErr, err := sup.Run(ctx, chunks)
	if cleanupErr != nil {
		rep.Warning(fmt.Sprintf("remote temp dir cleanup: %v", cleanupErr))
	}
	if err != nil {
		cleanupLocal()
		rep.Error(reporter.ReporterError{
			Title:   "distribution failed",
			Message: err.Error(),
		})
		return nil, err
	}

	if err := chunk.Concatenate(ctx, encoded, workDir.Path(), input, output); err != nil {
		cleanupLocal()
		return nil, fmt.Errorf("concatenating output: %w", err)
	}

	cleanupLocal()

	var originalSize uint64
	if info, statErr := os.Stat(input); statErr == nil {
		originalSize = uint64(info.Size())
	}

	outputInfo, err := os.Stat(output)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}
	encodedSize := uint64(outputInfo.Size())

	validationPassed := true
	if expected, probeErr := validation.ProbeDuration(ctx, input); probeErr == nil {
		if result := validation.ValidateOutput(ctx, output, expected, durationValidationToleranceSecs); !result.Passed {
			validationPassed = false
			rep.Warning("output validation failed; see log for details")
		}
	}

	hostTallies := make([]HostTally, len(tallies))
	for i, t := range tallies {
		hostTallies[i] = HostTally{Host: t.Host, ChunksCompleted: t.ChunksCompleted}
	}

	totalTime := time.Since(start)

	rep.RunComplete(reporter.RunOutcome{
		OutputFile:   output,
		OriginalSize: originalSize,
		EncodedSize:  encodedSize,
		TotalTime:    totalTime,
		HostTallies:  hostTallies,
	})

	return &Result{
		OutputFile:           output,
		OriginalSize:         originalSize,
		EncodedSize:          encodedSize,
		SizeReductionPercent: util.CalculateSizeReduction(originalSize, encodedSize),
		TotalTime:            totalTime,
		HostTallies:          hostTallies,
		ValidationPassed:     validationPassed,
	}, nil
}
