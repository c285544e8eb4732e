package validation

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestValidateOutputMissingFileFailsImmediately(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist.mkv")

	result := ValidateOutput(context.Background(), missing, 60, 5)
	if result.Passed {
		t.Fatal("expected a missing output file to fail validation")
	}
	if len(result.Steps) != 1 || result.Steps[0].Name != "exists" {
		t.Fatalf("expected validation to stop after the exists check, got steps: %v", result.Steps)
	}
}

func TestValidateOutputRejectsEmptyFile(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.mkv")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}

	result := ValidateOutput(context.Background(), empty, 60, 5)
	if result.Passed {
		t.Fatal("expected a zero-length output file to fail validation")
	}

	var nonEmpty *Step
	for i := range result.Steps {
		if result.Steps[i].Name == "non-empty" {
			nonEmpty = &result.Steps[i]
		}
	}
	if nonEmpty == nil {
		t.Fatal("expected a non-empty step to run for an existing file")
	}
	if nonEmpty.Passed {
		t.Error("expected the non-empty step to fail for a zero-length file")
	}
}

// requireFFprobeFixture builds a short silent test clip with ffmpeg and
// returns its path and known duration in seconds, skipping the test if
// either ffmpeg or ffprobe isn't available to build and probe it.
func requireFFprobeFixture(t *testing.T, seconds int) (path string, duration float64) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}

	path = filepath.Join(t.TempDir(), "fixture.mp4")
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-y",
		"-f", "lavfi", "-i", "color=c=black:s=64x64:d="+itoa(seconds),
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not build ffmpeg fixture: %v\n%s", err, out)
	}

	return path, float64(seconds)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestValidateOutputPassesWithinTolerance(t *testing.T) {
	path, duration := requireFFprobeFixture(t, 2)

	result := ValidateOutput(context.Background(), path, duration, 1)
	if !result.Passed {
		t.Fatalf("expected validation to pass when probed duration matches expected, got: %+v", result.Steps)
	}
}

func TestValidateOutputFailsWhenDurationExceedsTolerance(t *testing.T) {
	path, duration := requireFFprobeFixture(t, 2)

	result := ValidateOutput(context.Background(), path, duration+30, 1)
	if result.Passed {
		t.Fatal("expected validation to fail when probed duration is far outside tolerance")
	}

	var durationStep *Step
	for i := range result.Steps {
		if result.Steps[i].Name == "duration" {
			durationStep = &result.Steps[i]
		}
	}
	if durationStep == nil {
		t.Fatal("expected a duration step to run")
	}
	if durationStep.Passed {
		t.Error("expected the duration step to fail when actual duration is far outside tolerance")
	}
}

func TestProbeDurationReturnsErrorForMissingFile(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}
	missing := filepath.Join(t.TempDir(), "does-not-exist.mkv")
	if _, err := ProbeDuration(context.Background(), missing); err == nil {
		t.Fatal("expected ProbeDuration to fail for a missing file")
	}
}
