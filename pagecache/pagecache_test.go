package pagecache_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/pagecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRasterizer renders pages as 40x10 images. Documents listed in broken
// cannot be counted; documents listed in failing cannot be rasterized.
type fakeRasterizer struct {
	pages   map[string]int
	broken  map[string]bool
	failing map[string]bool
	calls   int
}

func (f *fakeRasterizer) PageCount(ctx context.Context, path string) (int, error) {
	if f.broken[path] {
		return 0, errors.New("corrupt document")
	}
	return f.pages[path], nil
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, path string, emit func(image.Image) error) error {
	f.calls++
	for i := 0; i < f.pages[path]; i++ {
		if f.failing[path] && i == 1 {
			return errors.New("rasterizer crashed")
		}
		img := image.NewNRGBA(image.Rect(0, 0, 40, 10))
		img.Set(0, 0, color.White)
		if err := emit(img); err != nil {
			return err
		}
	}
	return nil
}

func newCache(t *testing.T, rast pagecache.Rasterizer) (*pagecache.Cache, conf.Config) {
	t.Helper()
	cfg := conf.Default(t.TempDir())
	return pagecache.New(cfg, rast), cfg
}

var ns = pagecache.Namespace{Dir: "第1回レポートの提出(詳細)/B21X001_山田太郎", Name: "B21X001"}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRenderRegeneratesThenHits(t *testing.T) {
	rast := &fakeRasterizer{pages: map[string]int{"a.pdf": 2, "b.pdf": 1}}
	c, cfg := newCache(t, rast)
	ctx := context.Background()

	refs := c.Render(ctx, []string{"a.pdf", "b.pdf"}, ns)
	prefix := "pdf_images/" + ns.Dir + "/"
	assert.Equal(t, []string{
		prefix + "B21X001_page0.png",
		prefix + "B21X001_page1.png",
		prefix + "B21X001_page2.png",
	}, refs)
	assert.Equal(t, 2, rast.calls)

	dir := filepath.Join(cfg.ImageDir, filepath.FromSlash(ns.Dir))
	before, err := os.Stat(filepath.Join(dir, "B21X001_page0.png"))
	require.NoError(t, err)

	again := c.Render(ctx, []string{"a.pdf", "b.pdf"}, ns)
	assert.Equal(t, refs, again)
	assert.Equal(t, 2, rast.calls, "cache hit must not rasterize")
	after, err := os.Stat(filepath.Join(dir, "B21X001_page0.png"))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestRenderHitSortsByPageIndex(t *testing.T) {
	rast := &fakeRasterizer{pages: map[string]int{"a.pdf": 11}}
	c, _ := newCache(t, rast)
	refs := c.Render(context.Background(), []string{"a.pdf"}, ns)
	require.Len(t, refs, 11)

	refs = c.Render(context.Background(), []string{"a.pdf"}, ns)
	assert.Equal(t, "B21X001_page2.png", filepath.Base(refs[2]))
	assert.Equal(t, "B21X001_page10.png", filepath.Base(refs[10]))
}

func TestRenderCountMismatchReplacesAllPages(t *testing.T) {
	rast := &fakeRasterizer{pages: map[string]int{"a.pdf": 3}}
	c, cfg := newCache(t, rast)
	ctx := context.Background()
	dir := filepath.Join(cfg.ImageDir, filepath.FromSlash(ns.Dir))

	c.Render(ctx, []string{"a.pdf"}, ns)
	c.Rotate(ctx, c.Render(ctx, []string{"a.pdf"}, ns), 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	rast.pages["a.pdf"] = 2
	refs := c.Render(ctx, []string{"a.pdf"}, ns)
	require.Len(t, refs, 2)
	assert.Equal(t, []string{"B21X001_page0.png", "B21X001_page1.png", "notes.txt"}, listDir(t, dir))
}

func TestRenderSkipsUnreadableDocuments(t *testing.T) {
	rast := &fakeRasterizer{
		pages:  map[string]int{"a.pdf": 1, "bad.pdf": 4, "b.pdf": 1},
		broken: map[string]bool{"bad.pdf": true},
	}
	c, _ := newCache(t, rast)
	refs := c.Render(context.Background(), []string{"a.pdf", "bad.pdf", "b.pdf"}, ns)
	assert.Len(t, refs, 2)
	assert.Equal(t, 2, rast.calls)
}

func TestRenderNoPages(t *testing.T) {
	c, _ := newCache(t, &fakeRasterizer{})
	assert.Empty(t, c.Render(context.Background(), []string{"empty.pdf"}, ns))
	assert.Empty(t, c.Render(context.Background(), nil, ns))
}

func TestRenderFailureReturnsErrorImage(t *testing.T) {
	rast := &fakeRasterizer{
		pages:   map[string]int{"a.pdf": 3},
		failing: map[string]bool{"a.pdf": true},
	}
	c, cfg := newCache(t, rast)
	refs := c.Render(context.Background(), []string{"a.pdf"}, ns)
	assert.Equal(t, []string{"pdf_images/" + ns.Dir + "/error.png"}, refs)

	dir := filepath.Join(cfg.ImageDir, filepath.FromSlash(ns.Dir))
	assert.Empty(t, listDir(t, dir), "partial pages must be removed")
}

func TestRenderRejectsEscapingNamespace(t *testing.T) {
	c, _ := newCache(t, &fakeRasterizer{pages: map[string]int{"a.pdf": 1}})
	refs := c.Render(context.Background(), []string{"a.pdf"}, pagecache.Namespace{Dir: "../x", Name: "B1"})
	assert.Equal(t, []string{"pdf_images/error.png"}, refs)
}

func TestRotateWritesOnceAndReuses(t *testing.T) {
	c, _ := newCache(t, &fakeRasterizer{pages: map[string]int{"a.pdf": 1}})
	ctx := context.Background()
	refs := c.Render(ctx, []string{"a.pdf"}, ns)

	rotated := c.Rotate(ctx, refs, 1)
	require.Len(t, rotated, 1)
	assert.Equal(t, "B21X001_page0_rotated1.png", filepath.Base(rotated[0]))

	file, ok := c.File(rotated[0])
	require.True(t, ok)
	img, err := imaging.Open(file)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	info, err := os.Stat(file)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, rotated, c.Rotate(ctx, refs, 5))
	again, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())

	assert.Equal(t, refs, c.Rotate(ctx, refs, 4))
	assert.Equal(t, "B21X001_page0_rotated3.png", filepath.Base(c.Rotate(ctx, refs, -1)[0]))
}

func TestRotateKeepsErrorImage(t *testing.T) {
	c, _ := newCache(t, &fakeRasterizer{})
	refs := []string{"pdf_images/x/error.png"}
	assert.Equal(t, refs, c.Rotate(context.Background(), refs, 2))
}

func TestFile(t *testing.T) {
	c, cfg := newCache(t, &fakeRasterizer{})
	p, ok := c.File("pdf_images/a/b.png")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(cfg.ImageDir, "a", "b.png"), p)

	_, ok = c.File("pdf_images/../secret")
	assert.False(t, ok)
	_, ok = c.File("other/a.png")
	assert.False(t, ok)
}
