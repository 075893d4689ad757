package pagecache

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/programme-lv/grader/conf"
	"github.com/wailsapp/mimetype"
)

// Poppler rasterizes PDF documents with the pdftoppm tool and passes
// PNG and JPEG images through as single pages.
type Poppler struct {
	bin string
	dpi int
}

func NewPoppler(cfg conf.Config) *Poppler {
	return &Poppler{bin: cfg.Render.PdftoppmBin, dpi: cfg.Render.DPI}
}

type docKind int

const (
	docPDF docKind = iota
	docImage
)

func detect(path string) (docKind, error) {
	mType, err := mimetype.DetectFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to detect document type: %w", err)
	}
	switch {
	case mType.Is("application/pdf"):
		return docPDF, nil
	case mType.Is("image/png"), mType.Is("image/jpeg"):
		return docImage, nil
	}
	return 0, fmt.Errorf("unsupported document type: %s", mType.String())
}

func (p *Poppler) PageCount(ctx context.Context, path string) (int, error) {
	kind, err := detect(path)
	if err != nil {
		return 0, err
	}
	if kind == docImage {
		return 1, nil
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	return n, nil
}

var popplerPageRe = regexp.MustCompile(`-(\d+)\.png$`)

func (p *Poppler) Rasterize(ctx context.Context, path string, emit func(image.Image) error) error {
	kind, err := detect(path)
	if err != nil {
		return err
	}
	if kind == docImage {
		img, err := decodeFile(path)
		if err != nil {
			return err
		}
		return emit(img)
	}

	tmp, err := os.MkdirTemp("", "pagecache-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	cmd := exec.CommandContext(ctx, p.bin, "-png", "-r", strconv.Itoa(p.dpi), path, filepath.Join(tmp, "page"))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pdftoppm failed: %w: %s", err, out)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		return err
	}
	type outPage struct {
		n    int
		file string
	}
	var pages []outPage
	for _, e := range entries {
		m := popplerPageRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		pages = append(pages, outPage{n: n, file: filepath.Join(tmp, e.Name())})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })

	for _, pg := range pages {
		img, err := decodeFile(pg.file)
		if err != nil {
			return err
		}
		if err := emit(img); err != nil {
			return err
		}
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
