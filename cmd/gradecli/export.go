package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/renameio/v2"
	"github.com/programme-lv/grader/report"
)

const xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reportUploader interface {
	Upload(ctx context.Context, content []byte, key string, mediaType string) (string, error)
}

// exportReport writes the workbook to out, or uploads it under prefix when
// an uploader is given. It returns where the workbook went.
func exportReport(ctx context.Context, rep *report.Report, out string, prefix string, uploader reportUploader) (string, error) {
	var buf bytes.Buffer
	if err := report.ExportXLSX(rep, &buf); err != nil {
		return "", err
	}

	if uploader == nil {
		if err := renameio.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", out, err)
		}
		return out, nil
	}

	key := fmt.Sprintf("%s%s-%s.xlsx", prefix, rep.Domain, time.Now().UTC().Format("20060102-150405"))
	url, err := uploader.Upload(ctx, buf.Bytes(), key, xlsxMediaType)
	if err != nil {
		return "", err
	}
	return url, nil
}
