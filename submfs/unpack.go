package submfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"github.com/programme-lv/grader/logger"
	"golang.org/x/text/encoding/japanese"
)

// Unpack extracts every "<name>.zip" in dir into "<dir>/<name>" unless that
// directory already exists. Archives that fail to extract are logged and
// skipped.
func Unpack(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		archive := filepath.Join(dir, e.Name())
		target := filepath.Join(dir, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if _, err := os.Stat(target); err == nil {
			continue
		}
		logger.FromContext(ctx).Info("extracting archive", "archive", archive, "target", target)
		if err := extractZip(archive, target); err != nil {
			// leave no half-extracted directory behind; it would be taken
			// as already unpacked on the next scan
			_ = os.RemoveAll(target)
			logger.FromContext(ctx).Warn("skipping unreadable archive", "archive", archive, "error", err)
		}
	}
	return nil
}

func extractZip(archive string, target string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	root, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	for _, f := range zr.File {
		name := f.Name
		if f.NonUTF8 && !utf8.ValidString(name) {
			// archives built by Windows Explorer store Shift_JIS names
			if decoded, err := japanese.ShiftJIS.NewDecoder().String(name); err == nil {
				name = decoded
			}
		}
		dst := filepath.Join(root, filepath.FromSlash(name))
		if dst != root && !strings.HasPrefix(dst, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes target: %s", name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, dst); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
