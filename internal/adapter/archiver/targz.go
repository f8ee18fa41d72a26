package archiver

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

type TarGzArchiver struct{}

func NewTarGz() *TarGzArchiver {
	return &TarGzArchiver{}
}

func (t *TarGzArchiver) Extension() string {
	return ".tar.gz"
}

func (t *TarGzArchiver) ContentType() string {
	return "application/gzip"
}

func (t *TarGzArchiver) Archive(ctx context.Context, dir string) ([]byte, error) {
	entries, err := collect(dir)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gzipWriter, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tw := tar.NewWriter(gzipWriter)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := addTarEntry(tw, e); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize gzip: %w", err)
	}

	return buf.Bytes(), nil
}

func addTarEntry(tw *tar.Writer, e entry) error {
	header, err := tar.FileInfoHeader(e.info, "")
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", e.name, err)
	}
	header.Name = e.name

	file, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer file.Close()

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", e.name, err)
	}
	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("failed to compress %s: %w", e.name, err)
	}

	return nil
}
