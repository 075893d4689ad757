// Package pagecache renders submitted documents into page images and keeps
// them on disk between requests.
package pagecache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/nfnt/resize"
	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/srvcerror"
)

// ErrorImage is returned as the only page when rendering fails.
const ErrorImage = "error.png"

// Rasterizer turns one document into page images.
type Rasterizer interface {
	PageCount(ctx context.Context, path string) (int, error)
	// Rasterize calls emit for every page in order.
	Rasterize(ctx context.Context, path string, emit func(image.Image) error) error
}

// Namespace locates the images of one submission: files named
// "<Name>_page<N>.png" inside the slash separated Dir below the image root.
type Namespace struct {
	Dir  string
	Name string
}

func (ns Namespace) validate() error {
	if err := checkComponent(ns.Name); err != nil {
		return err
	}
	for _, part := range strings.Split(ns.Dir, "/") {
		if err := checkComponent(part); err != nil {
			return err
		}
	}
	return nil
}

func checkComponent(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return srvcerror.ErrInvalidName(name)
	}
	return nil
}

type Cache struct {
	root     string
	prefix   string
	maxWidth uint
	rast     Rasterizer
}

func New(cfg conf.Config, rast Rasterizer) *Cache {
	return &Cache{
		root:     cfg.ImageDir,
		prefix:   cfg.ImageURLPrefix,
		maxWidth: cfg.Render.MaxWidthPx,
		rast:     rast,
	}
}

func (c *Cache) dir(ns Namespace) string {
	return filepath.Join(c.root, filepath.FromSlash(ns.Dir))
}

func (c *Cache) ref(ns Namespace, file string) string {
	return path.Join(c.prefix, ns.Dir, file)
}

// File maps an image reference returned by Render or Rotate back to its
// location on disk.
func (c *Cache) File(ref string) (string, bool) {
	rel, ok := strings.CutPrefix(ref, c.prefix+"/")
	if !ok {
		return "", false
	}
	rel = path.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." {
		return "", false
	}
	return filepath.Join(c.root, filepath.FromSlash(rel)), true
}

func pagePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `_page(\d+)\.png$`)
}

func rotatedPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `_page\d+_rotated\d+\.png$`)
}

type page struct {
	index int
	file  string
}

func (c *Cache) existing(ns Namespace) ([]page, error) {
	entries, err := os.ReadDir(c.dir(ns))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	re := pagePattern(ns.Name)
	var pages []page
	for _, e := range entries {
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, page{index: n, file: e.Name()})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].index < pages[j].index })
	return pages, nil
}

// Render returns references to the page images of docs. Cached images are
// reused when their count equals the total page count of the documents;
// otherwise all of them are replaced. Unreadable documents count as zero
// pages. A failed regeneration yields a single ErrorImage reference.
func (c *Cache) Render(ctx context.Context, docs []string, ns Namespace) []string {
	log := logger.FromContext(ctx).With("namespace", ns.Dir, "name", ns.Name)
	if err := ns.validate(); err != nil {
		log.Warn("invalid render namespace", "error", err)
		return []string{path.Join(c.prefix, ErrorImage)}
	}

	expected := 0
	var readable []string
	for _, doc := range docs {
		n, err := c.rast.PageCount(ctx, doc)
		if err != nil {
			log.Warn("failed to count pages, skipping document", "document", doc, "error", err)
			continue
		}
		expected += n
		readable = append(readable, doc)
	}
	if expected == 0 {
		log.Info("no pages to render")
		return []string{}
	}

	cached, err := c.existing(ns)
	if err != nil {
		log.Error("failed to list cached pages", "error", err)
		return []string{c.ref(ns, ErrorImage)}
	}
	if len(cached) == expected {
		log.Debug("page cache hit", "pages", expected)
		refs := make([]string, len(cached))
		for i, p := range cached {
			refs[i] = c.ref(ns, p.file)
		}
		return refs
	}

	log.Info("page cache miss, regenerating", "expected", expected, "cached", len(cached))
	refs, err := c.regenerate(ctx, readable, ns)
	if err != nil {
		log.Error("failed to render pages", "error", err)
		return []string{c.ref(ns, ErrorImage)}
	}
	if len(refs) != expected {
		log.Warn("rendered page count differs from document page count",
			"expected", expected, "rendered", len(refs))
	}
	return refs
}

func (c *Cache) regenerate(ctx context.Context, docs []string, ns Namespace) ([]string, error) {
	dir := c.dir(ns)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := c.purge(ns); err != nil {
		return nil, err
	}

	var refs []string
	counter := 0
	for _, doc := range docs {
		err := c.rast.Rasterize(ctx, doc, func(img image.Image) error {
			file := fmt.Sprintf("%s_page%d.png", ns.Name, counter)
			if err := c.writePage(filepath.Join(dir, file), img); err != nil {
				return err
			}
			refs = append(refs, c.ref(ns, file))
			counter++
			return nil
		})
		if err != nil {
			// partial output would be taken for a stale cache
			_ = c.purge(ns)
			return nil, fmt.Errorf("failed to rasterize %s: %w", doc, err)
		}
	}
	return refs, nil
}

// purge deletes the pages of ns and every rotated variant derived from them.
func (c *Cache) purge(ns Namespace) error {
	entries, err := os.ReadDir(c.dir(ns))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	pages, rotated := pagePattern(ns.Name), rotatedPattern(ns.Name)
	for _, e := range entries {
		if pages.MatchString(e.Name()) || rotated.MatchString(e.Name()) {
			if err := os.Remove(filepath.Join(c.dir(ns), e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Cache) writePage(dst string, img image.Image) error {
	if c.maxWidth > 0 && uint(img.Bounds().Dx()) > c.maxWidth {
		img = resize.Resize(c.maxWidth, 0, img, resize.Lanczos3)
	}
	return writePNG(dst, img)
}

func writePNG(dst string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}
	return renameio.WriteFile(dst, buf.Bytes(), 0o644)
}
