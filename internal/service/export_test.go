package service

import (
	"testing"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/pkg/code"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderNote_Formats(t *testing.T) {
	note := &domain.Note{Title: "Weekly plan", Content: "- a\n- b"}

	for _, format := range []string{"markdown", "", "Markdown"} {
		doc, err := RenderNote(note, format)
		require.NoError(t, err, format)
		assert.Equal(t, "Weekly plan.md", doc.Filename)
		assert.Equal(t, "text/markdown; charset=utf-8", doc.ContentType)
		assert.Equal(t, "# Weekly plan\n\n- a\n- b", string(doc.Body))
	}

	_, err := RenderNote(note, "pdf")
	assert.ErrorIs(t, err, code.ErrorExportNotImplemented)
	assert.Equal(t, 501, code.ErrorExportNotImplemented.StatusCode())

	_, err = RenderNote(note, "xml")
	assert.ErrorIs(t, err, code.ErrorExportUnsupported)
	assert.Equal(t, 400, code.ErrorExportUnsupported.StatusCode())
}

func TestRenderNote_UnsafeTitleFilename(t *testing.T) {
	doc, err := RenderNote(&domain.Note{Title: `a/b"c`, Content: "x"}, "markdown")
	require.NoError(t, err)
	assert.NotContains(t, doc.Filename, "/")
	assert.NotContains(t, doc.Filename, `"`)
	// 正文中的标题保持原样
	assert.Equal(t, "# a/b\"c\n\nx", string(doc.Body))
}

func TestParseMarkdownExport_Rejects(t *testing.T) {
	_, _, ok := ParseMarkdownExport([]byte("no heading"))
	assert.False(t, ok)
	_, _, ok = ParseMarkdownExport([]byte("# title only"))
	assert.False(t, ok)
}

// 导出后解析可还原标题与正文
func TestProperty_MarkdownExportRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	title := gen.AnyString().SuchThat(func(s string) bool { return checkTitle(s) == nil })

	properties.Property("parse(render(note)) == (title, content)", prop.ForAll(
		func(title, content string) bool {
			doc, err := RenderNote(&domain.Note{Title: title, Content: content}, "markdown")
			if err != nil {
				return false
			}
			gotTitle, gotContent, ok := ParseMarkdownExport(doc.Body)
			return ok && gotTitle == title && gotContent == content
		},
		title,
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
