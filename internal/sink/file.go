// Package sink writes generation artifacts to the local filesystem.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSink writes artifacts through a temp file in the destination
// directory followed by an atomic rename, so an interrupted transfer never
// leaves a final-named partial file behind.
type FileSink struct{}

func NewFileSink() *FileSink { return &FileSink{} }

func (s *FileSink) Write(ctx context.Context, r io.Reader, dest string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := copyContext(ctx, tmp, r); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("finalize artifact: %w", err)
	}
	tmpName = ""
	return nil
}

// copyContext copies in chunks, checking for cancellation between reads so
// an abandoned download does not keep streaming in the background.
func copyContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, 128*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
