// Package chunk provides the Chunk/EncodedChunk data types and the local
// media collaborator: split, audio extraction, concatenation, and mux.
package chunk

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Chunk is one contiguous, independently-transcodable slice of the source
// video, as produced by Split. Its index defines concat order and is
// immutable thereafter.
type Chunk struct {
	// Idx is the 0-based chunk index; the index set of a split is exactly
	// {0, ..., K-1} with no duplicates or gaps.
	Idx int

	// LocalPath is the path of this chunk's source bytes on local disk.
	LocalPath string

	// Filename is the logical filename, reused verbatim on the remote host.
	Filename string
}

// EncodedChunk is the result of one Chunk completing its round trip through
// a (manager, encoder) pair: pushed to a host, transcoded remotely, pulled
// back. It carries the same index as its source Chunk.
type EncodedChunk struct {
	Idx       int
	LocalPath string
}

const sourceChunkPattern = "chunk-%05d%s"

// SourceChunksDir is the work-dir subdirectory holding split source chunks.
func SourceChunksDir(workDir string) string {
	return filepath.Join(workDir, "source-chunks")
}

// EncodedChunksDir is the work-dir subdirectory holding pulled-back encoded
// chunks, keyed by index so managers never contend on a filename.
func EncodedChunksDir(workDir string) string {
	return filepath.Join(workDir, "encoded-chunks")
}

// AudioPath is the work-dir path for the single extracted audio file.
func AudioPath(workDir string) string {
	return filepath.Join(workDir, "audio.mka")
}

// EncodedChunkPath returns the local path an EncodedChunk of the given index
// should be pulled back to.
func EncodedChunkPath(workDir string, idx int, ext string) string {
	return filepath.Join(EncodedChunksDir(workDir), fmt.Sprintf(sourceChunkPattern, idx, ext))
}

// CreateWorkDir creates the work directory structure: source-chunks/ and
// encoded-chunks/ subdirectories.
func CreateWorkDir(workDir string) error {
	if err := os.MkdirAll(SourceChunksDir(workDir), 0755); err != nil {
		return fmt.Errorf("failed to create source-chunks directory: %w", err)
	}
	if err := os.MkdirAll(EncodedChunksDir(workDir), 0755); err != nil {
		return fmt.Errorf("failed to create encoded-chunks directory: %w", err)
	}
	return nil
}

// CleanupWorkDir removes the work directory and all its contents.
func CleanupWorkDir(workDir string) error {
	return os.RemoveAll(workDir)
}

// Split cuts inputPath into roughly chunkSeconds-long chunks using ffmpeg's
// segment muxer, which copies streams rather than re-encoding (chunks are
// transcoded remotely, not here). Returns the chunks in index order.
func Split(ctx context.Context, inputPath string, chunkSeconds uint, workDir string) ([]Chunk, error) {
	outDir := SourceChunksDir(workDir)
	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext == "" {
		ext = ".mkv"
	}

	pattern := filepath.Join(outDir, "chunk-%05d"+ext)

	args := []string{
		"-hide_banner",
		"-i", inputPath,
		"-c", "copy",
		"-map", "0:v:0",
		"-f", "segment",
		"-segment_time", strconv.FormatUint(uint64(chunkSeconds), 10),
		"-reset_timestamps", "1",
		"-y",
		pattern,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg split failed: %w\noutput: %s", err, string(output))
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source-chunks directory: %w", err)
	}

	var chunks []Chunk
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		chunks = append(chunks, Chunk{
			LocalPath: filepath.Join(outDir, e.Name()),
			Filename:  e.Name(),
		})
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Filename < chunks[j].Filename })
	for i := range chunks {
		chunks[i].Idx = i
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("split produced no chunks from %s", inputPath)
	}

	return chunks, nil
}
