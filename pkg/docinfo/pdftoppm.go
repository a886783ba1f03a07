package docinfo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// PdftoppmThumbnailer shells out to poppler's pdftoppm.
type PdftoppmThumbnailer struct {
	Binary string // defaults to "pdftoppm" on PATH
	Width  int    // pixels, defaults to 200
}

func (p PdftoppmThumbnailer) FirstPage(ctx context.Context, path string) ([]byte, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	width := p.Width
	if width <= 0 {
		width = 200
	}

	dir, err := os.MkdirTemp("", "shabdsetu-thumb-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	root := filepath.Join(dir, "page")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin,
		"-png", "-f", "1", "-l", "1", "-singlefile",
		"-scale-to-x", strconv.Itoa(width), "-scale-to-y", "-1",
		path, root)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", bin, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return os.ReadFile(root + ".png")
}
