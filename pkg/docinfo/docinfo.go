// Package docinfo inspects a local document for the upload preview.
package docinfo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const MIMEPDF = "application/pdf"

// Info is what could be learned about a file. PageCount and Thumbnail stay
// empty when they could not be derived; Problems says why.
type Info struct {
	Name      string
	Path      string
	Size      int64
	Extension string // lowercase, no dot
	MIMEType  string
	PageCount *int
	Thumbnail []byte
	Problems  []error
}

func (i *Info) IsPDF() bool {
	return i.MIMEType == MIMEPDF || i.Extension == "pdf"
}

// Thumbnailer renders the first page of a PDF as an image.
type Thumbnailer interface {
	FirstPage(ctx context.Context, path string) ([]byte, error)
}

type Inspector struct {
	thumbs Thumbnailer
}

// NewInspector accepts a nil thumbnailer; PDFs then get no thumbnail.
func NewInspector(thumbs Thumbnailer) *Inspector {
	return &Inspector{thumbs: thumbs}
}

// Stat reads only what the filesystem knows: name, size, extension.
func Stat(path string) (*Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &Info{
		Name:      fi.Name(),
		Path:      path,
		Size:      fi.Size(),
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(fi.Name())), "."),
	}, nil
}

// Inspect fills MIME type, page count and thumbnail. Only an unreadable
// file is an error; PDF problems degrade into Info.Problems.
func (in *Inspector) Inspect(ctx context.Context, info *Info) error {
	mt, err := mimetype.DetectFile(info.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", info.Name, err)
	}
	info.MIMEType = mt.String()
	if mt.Is(MIMEPDF) {
		info.MIMEType = MIMEPDF
	}

	if !info.IsPDF() {
		return nil
	}

	if n, err := PageCount(info.Path); err != nil {
		info.Problems = append(info.Problems, fmt.Errorf("page count: %w", err))
	} else {
		info.PageCount = &n
	}

	if in.thumbs != nil {
		img, err := in.thumbs.FirstPage(ctx, info.Path)
		if err != nil {
			info.Problems = append(info.Problems, fmt.Errorf("thumbnail: %w", err))
		} else {
			info.Thumbnail = img
		}
	}
	return nil
}

var disableConfigDir sync.Once

func PageCount(path string) (int, error) {
	// pdfcpu otherwise creates a config dir under the user's home
	disableConfigDir.Do(api.DisableConfigDir)

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return api.PageCount(f, nil)
}
