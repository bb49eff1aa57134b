package repodata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
)

// Artifact names written under the subdir directory.
const (
	FileJSON  = "repodata.json"
	FileBzip2 = "repodata.json.bz2"
	FileZstd  = "repodata.json.zst"
)

// Artifact describes one file written by WriteArtifacts.
type Artifact struct {
	Name string
	Size int64
}

// Encode serializes the document once, with two-space indentation and keys
// in ascending order. Every artifact derives from these bytes.
func Encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "serializing repodata")
	}
	return append(data, '\n'), nil
}

// WriteArtifacts writes repodata.json plus its bz2 and zstd variants into
// dir, creating it as needed. Each compressed file is produced from the
// exact serialized bytes, never from a re-serialization.
func WriteArtifacts(doc *Document, dir string) ([]Artifact, error) {
	data, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	bz, err := compressBzip2(data)
	if err != nil {
		return nil, err
	}
	zs, err := compressZstd(data)
	if err != nil {
		return nil, err
	}

	files := []struct {
		name string
		data []byte
	}{
		{FileJSON, data},
		{FileBzip2, bz},
		{FileZstd, zs},
	}

	artifacts := make([]Artifact, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		artifacts = append(artifacts, Artifact{Name: f.name, Size: int64(len(f.data))})
	}
	return artifacts, nil
}

func compressBzip2(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return nil, fmt.Errorf("bzip2 writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("bzip2 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("bzip2 close: %w", err)
	}
	return buf.Bytes(), nil
}

func compressZstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
