// FILE: internal/controller/upload_controller.go
package controller

import (
	"context"
	"fmt"
	"strings"

	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/view"
	"shabdsetu-client/pkg/docinfo"
	"shabdsetu-client/pkg/store"

	"github.com/dustin/go-humanize"
)

type IUploadController interface {
	Select(ctx context.Context, path string) (*store.UploadedFile, error)
	Remove()
}

type uploadController struct {
	inspector *docinfo.Inspector
	view      view.View
	session   *store.Session
	logger    logger.ILogger
	maxBytes  int64
}

func NewUploadController(inspector *docinfo.Inspector, v view.View, session *store.Session, log logger.ILogger, maxBytes int64) IUploadController {
	if maxBytes <= 0 {
		maxBytes = constant.MaxUploadBytes
	}
	return &uploadController{inspector: inspector, view: v, session: session, logger: log, maxBytes: maxBytes}
}

// Select retains path as the one file to process. A rejected selection
// leaves the previous one in place.
func (c *uploadController) Select(ctx context.Context, path string) (*store.UploadedFile, error) {
	info, err := docinfo.Stat(path)
	if err != nil {
		c.view.Notify(view.Notice{Kind: view.NoticeError, Text: "Could not open the selected file."})
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if !constant.IsExtensionAllowed(c.session.Mode, info.Extension) {
		allowed := constant.AllowedExtensions(c.session.Mode)
		c.view.Notify(view.Notice{
			Kind: view.NoticeError,
			Text: fmt.Sprintf("Unsupported file type. Please choose a %s file.", strings.ToUpper(strings.Join(allowed, "/"))),
		})
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, info.Name)
	}

	if info.Size > c.maxBytes {
		c.view.Notify(view.Notice{
			Kind: view.NoticeError,
			Text: fmt.Sprintf("File is too large (%s). Maximum size is %s.", humanize.IBytes(uint64(info.Size)), humanize.IBytes(uint64(c.maxBytes))),
		})
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, info.Name, info.Size)
	}

	if err := c.inspector.Inspect(ctx, info); err != nil {
		c.view.Notify(view.Notice{Kind: view.NoticeError, Text: "Could not read the selected file."})
		return nil, err
	}
	for _, problem := range info.Problems {
		c.logger.Warn("UPLOAD", "Preview degraded", map[string]interface{}{"file": info.Name, "error": problem.Error()})
	}

	file := &store.UploadedFile{
		Name:      info.Name,
		Path:      info.Path,
		Size:      info.Size,
		MIMEType:  info.MIMEType,
		Extension: info.Extension,
		PageCount: info.PageCount,
		Thumbnail: info.Thumbnail,
	}
	c.session.File = file

	c.view.ShowPreview(view.Preview{
		Name:         file.Name,
		Size:         humanize.IBytes(uint64(file.Size)),
		MIMEType:     file.MIMEType,
		PageCount:    file.PageCount,
		HasThumbnail: len(file.Thumbnail) > 0,
	})
	c.view.SetEnabled(view.ControlSubmit, c.session.Ready())

	c.logger.Info("UPLOAD", "File selected", map[string]interface{}{"file": file.Name, "size": file.Size, "mime": file.MIMEType})
	return file, nil
}

func (c *uploadController) Remove() {
	c.session.File = nil
	c.view.ClearPreview()
	c.view.SetEnabled(view.ControlSubmit, false)
}
