package chunk

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// writeConcatFile writes an ffmpeg concat-demuxer list, one absolute path
// per line, in the order given.
func writeConcatFile(concatPath string, paths []string) (err error) {
	f, err := os.Create(concatPath)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close concat file: %w", cerr)
		}
	}()

	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", p, err)
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", absPath); err != nil {
			return fmt.Errorf("failed to write to concat file: %w", err)
		}
	}

	return nil
}

// Concatenate joins encoded chunks, sorted by index, into a single video
// stream via ffmpeg's concat demuxer (stream copy, no re-encode), then muxes
// in the extracted audio (if present) and the original input's subtitles and
// chapters. The index set must be exactly {0, ..., K-1}: an empty list, a
// gap, or a duplicate index is rejected with an error before ffmpeg runs.
func Concatenate(ctx context.Context, encoded []EncodedChunk, workDir, inputPath, outputPath string) error {
	if len(encoded) == 0 {
		return fmt.Errorf("no encoded chunks to concatenate")
	}

	sorted := make([]EncodedChunk, len(encoded))
	copy(sorted, encoded)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Idx < sorted[j].Idx })

	for i, ec := range sorted {
		if ec.Idx != i {
			return fmt.Errorf("encoded chunk set has a gap or duplicate: expected index %d, got %d", i, ec.Idx)
		}
	}

	paths := make([]string, len(sorted))
	for i, ec := range sorted {
		paths[i] = ec.LocalPath
	}

	concatListPath := filepath.Join(workDir, "concat.txt")
	if err := writeConcatFile(concatListPath, paths); err != nil {
		return err
	}
	defer func() { _ = os.Remove(concatListPath) }()

	videoPath := filepath.Join(workDir, "video.mkv")
	concatArgs := []string{
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListPath,
		"-c", "copy",
		"-fflags", "+genpts+igndts+discardcorrupt+bitexact",
		"-avoid_negative_ts", "make_zero",
		"-reset_timestamps", "1",
		"-y",
		videoPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", concatArgs...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("concat of encoded chunks failed: %w\noutput: %s", err, string(output))
	}

	return muxFinal(ctx, videoPath, workDir, inputPath, outputPath)
}

// muxFinal combines the concatenated video with extracted audio (if any),
// and the original input's subtitles, chapters and metadata, stream-copying
// every stream.
func muxFinal(ctx context.Context, videoPath, workDir, inputPath, outputPath string) error {
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("concatenated video not found: %w", err)
	}

	args := []string{
		"-hide_banner",
		"-i", videoPath,
	}

	hasAudio := HasAudio(workDir)
	if hasAudio {
		args = append(args, "-i", AudioPath(workDir))
	}

	args = append(args, "-i", inputPath)

	args = append(args, "-map", "0:v:0")
	if hasAudio {
		args = append(args, "-map", "1:a?")
	}

	subtitleInputIdx := 2
	if !hasAudio {
		subtitleInputIdx = 1
	}
	args = append(args, "-map", fmt.Sprintf("%d:s?", subtitleInputIdx))

	args = append(args,
		"-c", "copy",
		"-map_metadata", fmt.Sprintf("%d", subtitleInputIdx),
		"-map_chapters", fmt.Sprintf("%d", subtitleInputIdx),
		"-movflags", "+faststart",
		"-y", outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("final mux failed: %w\noutput: %s", err, string(output))
	}

	return nil
}
