package chunk

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ExtractAudio pulls every audio stream out of the source video into a
// single Matroska audio container, stream-copied so no re-encode is spent
// on it. If the source has no audio, it returns nil without writing
// anything and callers treat AudioPath as absent.
func ExtractAudio(ctx context.Context, inputPath, workDir string) error {
	audioPath := AudioPath(workDir)

	args := []string{
		"-hide_banner",
		"-i", inputPath,
		"-vn",
		"-map", "0:a?",
		"-c:a", "copy",
		"-map_metadata", "0",
		"-y",
		audioPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("audio extraction failed: %w\noutput: %s", err, string(output))
	}

	info, err := os.Stat(audioPath)
	if err != nil || info.Size() == 0 {
		// No audio streams: ffmpeg wrote an empty or zero-length container.
		_ = os.Remove(audioPath)
	}

	return nil
}

// HasAudio reports whether ExtractAudio produced a non-empty audio file.
func HasAudio(workDir string) bool {
	info, err := os.Stat(AudioPath(workDir))
	return err == nil && info.Size() > 0
}
