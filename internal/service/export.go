package service

import (
	"strings"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/pkg/code"
	"github.com/haierkeys/fast-note-service/pkg/util"
)

const (
	ExportFormatMarkdown = "markdown"
	ExportFormatPDF      = "pdf"

	markdownContentType = "text/markdown; charset=utf-8"
)

// Document 导出结果
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// RenderNote renders note in format. An empty format means markdown.
// pdf is recognised but ErrorExportNotImplemented; anything else is ErrorExportUnsupported.
func RenderNote(note *domain.Note, format string) (*Document, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case ExportFormatMarkdown, "":
		return &Document{
			Filename:    util.SafeFilename(note.Title, "note") + ".md",
			ContentType: markdownContentType,
			Body:        []byte("# " + note.Title + "\n\n" + note.Content),
		}, nil
	case ExportFormatPDF:
		return nil, code.ErrorExportNotImplemented
	default:
		return nil, code.ErrorExportUnsupported.WithDetails("format " + format)
	}
}

// ParseMarkdownExport splits a markdown export back into title and content.
func ParseMarkdownExport(body []byte) (title, content string, ok bool) {
	s := string(body)
	if !strings.HasPrefix(s, "# ") {
		return "", "", false
	}
	s = s[2:]
	i := strings.Index(s, "\n\n")
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+2:], true
}
