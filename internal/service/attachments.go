package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"complaint-service/internal/metrics"
	"complaint-service/internal/model"
)

const maxFileNameLength = 255

// FileUpload is one uploaded image as received from the transport layer.
type FileUpload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

type preparedFile struct {
	id          uuid.UUID
	fileName    string
	contentType string
	data        []byte
}

// prepareFiles reads and checks every upload. Nothing is written anywhere until all files pass.
func (s *ComplaintService) prepareFiles(files []FileUpload) ([]preparedFile, error) {
	if len(files) > s.cfg.MaxAttachmentsPerAction {
		metrics.AttachmentsRejected.WithLabelValues("count").Inc()
		return nil, invalid("files", "at most %d files are allowed per request", s.cfg.MaxAttachmentsPerAction)
	}

	prepared := make([]preparedFile, 0, len(files))
	for i, f := range files {
		field := fmt.Sprintf("files[%d]", i)

		contentType := normalizeContentType(f.ContentType)
		if !model.AllowedContentType(contentType) {
			metrics.AttachmentsRejected.WithLabelValues("type").Inc()
			return nil, invalid(field, "content type %q is not allowed, use image/jpeg, image/png or image/webp", f.ContentType)
		}
		if f.Content == nil {
			metrics.AttachmentsRejected.WithLabelValues("empty").Inc()
			return nil, invalid(field, "file is empty")
		}

		data, err := io.ReadAll(io.LimitReader(f.Content, model.MaxAttachmentBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", field, err)
		}
		if len(data) == 0 {
			metrics.AttachmentsRejected.WithLabelValues("empty").Inc()
			return nil, invalid(field, "file is empty")
		}
		if len(data) > model.MaxAttachmentBytes {
			metrics.AttachmentsRejected.WithLabelValues("size").Inc()
			return nil, invalid(field, "file exceeds the 2 MiB limit")
		}
		if !mimetype.Detect(data).Is(contentType) {
			metrics.AttachmentsRejected.WithLabelValues("content").Inc()
			return nil, invalid(field, "file content is not %s", contentType)
		}

		prepared = append(prepared, preparedFile{
			id:          uuid.New(),
			fileName:    cleanFileName(f.FileName),
			contentType: contentType,
			data:        data,
		})
	}
	return prepared, nil
}

func normalizeContentType(raw string) string {
	if i := strings.IndexByte(raw, ';'); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

func cleanFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == "/" {
		return "attachment"
	}
	for utf8.RuneCountInString(name) > maxFileNameLength {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}
