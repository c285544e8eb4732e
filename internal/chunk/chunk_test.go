package chunk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWorkDirPathHelpers(t *testing.T) {
	workDir := "/tmp/run1"

	if got, want := SourceChunksDir(workDir), filepath.Join(workDir, "source-chunks"); got != want {
		t.Errorf("SourceChunksDir() = %q, want %q", got, want)
	}
	if got, want := EncodedChunksDir(workDir), filepath.Join(workDir, "encoded-chunks"); got != want {
		t.Errorf("EncodedChunksDir() = %q, want %q", got, want)
	}
	if got, want := AudioPath(workDir), filepath.Join(workDir, "audio.mka"); got != want {
		t.Errorf("AudioPath() = %q, want %q", got, want)
	}

	got := EncodedChunkPath(workDir, 7, ".mkv")
	want := filepath.Join(workDir, "encoded-chunks", "chunk-00007.mkv")
	if got != want {
		t.Errorf("EncodedChunkPath() = %q, want %q", got, want)
	}
}

func TestCreateWorkDirCreatesBothSubdirs(t *testing.T) {
	workDir := t.TempDir()
	if err := CreateWorkDir(workDir); err != nil {
		t.Fatalf("CreateWorkDir: %v", err)
	}
	for _, dir := range []string{SourceChunksDir(workDir), EncodedChunksDir(workDir)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}
}

func TestCleanupWorkDirRemovesEverything(t *testing.T) {
	workDir := t.TempDir()
	if err := CreateWorkDir(workDir); err != nil {
		t.Fatalf("CreateWorkDir: %v", err)
	}
	if err := CleanupWorkDir(workDir); err != nil {
		t.Fatalf("CleanupWorkDir: %v", err)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Errorf("expected work dir to be removed, stat err = %v", err)
	}
}

func TestConcatenateRejectsGapsAndDuplicates(t *testing.T) {
	workDir := t.TempDir()

	// A gap: indices 0, 2 with no 1.
	gapped := []EncodedChunk{{Idx: 0, LocalPath: "a"}, {Idx: 2, LocalPath: "b"}}
	if err := Concatenate(context.Background(), gapped, workDir, "in.mkv", "out.mkv"); err == nil {
		t.Error("expected Concatenate to reject a gapped index set")
	}

	// A duplicate: two chunks both claiming index 0.
	duplicated := []EncodedChunk{{Idx: 0, LocalPath: "a"}, {Idx: 0, LocalPath: "b"}}
	if err := Concatenate(context.Background(), duplicated, workDir, "in.mkv", "out.mkv"); err == nil {
		t.Error("expected Concatenate to reject a duplicate index set")
	}
}

func TestConcatenateRejectsEmptyInput(t *testing.T) {
	workDir := t.TempDir()
	if err := Concatenate(context.Background(), nil, workDir, "in.mkv", "out.mkv"); err == nil {
		t.Error("expected Concatenate to reject an empty encoded chunk list")
	}
}

func TestHasAudioReflectsAudioFileState(t *testing.T) {
	workDir := t.TempDir()
	if HasAudio(workDir) {
		t.Fatal("expected HasAudio to be false before any audio file exists")
	}

	if err := os.WriteFile(AudioPath(workDir), []byte{}, 0644); err != nil {
		t.Fatalf("writing empty audio file: %v", err)
	}
	if HasAudio(workDir) {
		t.Error("expected HasAudio to be false for a zero-length audio file")
	}

	if err := os.WriteFile(AudioPath(workDir), []byte("pcm"), 0644); err != nil {
		t.Fatalf("writing non-empty audio file: %v", err)
	}
	if !HasAudio(workDir) {
		t.Error("expected HasAudio to be true once the audio file has content")
	}
}
