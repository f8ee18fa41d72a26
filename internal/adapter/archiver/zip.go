package archiver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
)

type ZipArchiver struct{}

func NewZip() *ZipArchiver {
	return &ZipArchiver{}
}

func (z *ZipArchiver) Extension() string {
	return ".zip"
}

func (z *ZipArchiver) ContentType() string {
	return "application/zip"
}

// Archive packs every regular file below dir into an in-memory zip.
func (z *ZipArchiver) Archive(ctx context.Context, dir string) ([]byte, error) {
	entries, err := collect(dir)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return nil, err
		}
		if err := addZipEntry(zw, e); err != nil {
			zw.Close()
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize zip: %w", err)
	}

	return buf.Bytes(), nil
}

func addZipEntry(zw *zip.Writer, e entry) error {
	header, err := zip.FileInfoHeader(e.info)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", e.name, err)
	}
	header.Name = e.name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", e.name, err)
	}

	file, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to compress %s: %w", e.name, err)
	}

	return nil
}
