package pagecache

import (
	"context"
	"fmt"
	"image"
	"os"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/programme-lv/grader/logger"
)

// Rotate returns references to the pages turned counter-clockwise by
// quarter*90 degrees. Rotated images are written next to the page as
// "<page>_rotated<quarter>.png" once and reused afterwards. Pages that
// cannot be rotated are returned unchanged.
func (c *Cache) Rotate(ctx context.Context, refs []string, quarter int) []string {
	quarter = ((quarter % 4) + 4) % 4
	if quarter == 0 {
		return refs
	}

	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref
		if path.Base(ref) == ErrorImage || !strings.HasSuffix(ref, ".png") {
			continue
		}
		rotated := strings.TrimSuffix(ref, ".png") + fmt.Sprintf("_rotated%d.png", quarter)
		if err := c.rotateOnce(ref, rotated, quarter); err != nil {
			logger.FromContext(ctx).Warn("failed to rotate page", "page", ref, "error", err)
			continue
		}
		out[i] = rotated
	}
	return out
}

func (c *Cache) rotateOnce(ref string, rotatedRef string, quarter int) error {
	src, ok := c.File(ref)
	if !ok {
		return fmt.Errorf("not a cached page: %s", ref)
	}
	dst, ok := c.File(rotatedRef)
	if !ok {
		return fmt.Errorf("not a cached page: %s", rotatedRef)
	}
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	img, err := imaging.Open(src)
	if err != nil {
		return err
	}
	var turned image.Image
	switch quarter {
	case 1:
		turned = imaging.Rotate90(img)
	case 2:
		turned = imaging.Rotate180(img)
	default:
		turned = imaging.Rotate270(img)
	}
	return writePNG(dst, turned)
}
