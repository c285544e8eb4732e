// Package main provides the CLI entry point for clustercode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/clustercode/internal/config"
	"github.com/five82/clustercode/internal/logging"
	"github.com/five82/clustercode/internal/reporter"

	"github.com/five82/clustercode"
)

const appVersion = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runFlags struct {
	clients string
	length  uint
	tmp     string
	keep    bool
	codec   string
	crf     uint8
	preset  string
	logDir  string
	noLog   bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:     "clustercode IN OUT",
		Short:   "Distribute a video transcode across remote hosts",
		Version: appVersion,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd.Context(), args[0], args[1], rf)
		},
	}

	cmd.Flags().StringVarP(&rf.clients, "clients", "c", "", "comma-separated list of worker hostnames (required)")
	cmd.Flags().UintVarP(&rf.length, "length", "l", config.DefaultChunkLengthSecs, "target chunk length in seconds")
	cmd.Flags().StringVarP(&rf.tmp, "tmp", "t", "", "local temp directory root (defaults under the user's home)")
	cmd.Flags().BoolVarP(&rf.keep, "keep", "k", false, "retain remote temp directories after termination")
	cmd.Flags().StringVar(&rf.codec, "codec", config.DefaultVideoCodec, "ffmpeg video codec used for the remote transcode")
	cmd.Flags().Uint8Var(&rf.crf, "crf", config.DefaultCRF, "remote encode CRF quality (0-51)")
	cmd.Flags().StringVar(&rf.preset, "preset", config.DefaultPreset, "remote encode speed preset")
	cmd.Flags().StringVar(&rf.logDir, "log-dir", "", "log directory (defaults to "+logging.DefaultLogDir()+")")
	cmd.Flags().BoolVar(&rf.noLog, "no-log", false, "disable log file creation")
	cmd.Flags().BoolVarP(&rf.verbose, "verbose", "v", false, "enable debug-level log output")

	_ = cmd.MarkFlagRequired("clients")

	return cmd
}

func runEncode(ctx context.Context, input, output string, rf runFlags) error {
	inputPath, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input not found: %w", err)
	}

	outputPath, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("preparing output directory: %w", err)
	}

	logDir := rf.logDir
	if logDir == "" {
		logDir = logging.DefaultLogDir()
	}
	logger, err := logging.Setup(logDir, rf.verbose, rf.noLog, os.Args)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logger.Close()

	runner, err := clustercode.New(
		clustercode.WithChunkLength(rf.length),
		clustercode.WithVideoCodec(rf.codec),
		clustercode.WithCRF(rf.crf),
		clustercode.WithPreset(rf.preset),
		clustercode.WithTempDir(rf.tmp),
		func(c *config.Config) {
			if rf.keep {
				c.KeepTemp = true
			}
		},
		func(c *config.Config) {
			if rf.verbose {
				c.Verbose = true
			}
		},
	)
	if err != nil {
		return fmt.Errorf("initializing runner: %w", err)
	}

	termRep := reporter.NewTerminalReporterVerbose(rf.verbose)
	var rep reporter.Reporter = termRep
	if logger != nil {
		logRep := reporter.NewLogReporter(logger.Writer())
		rep = reporter.NewCompositeReporter(termRep, logRep)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	_, err = runner.Run(ctx, inputPath, outputPath, rf.clients, rep, logger)
	return err
}
