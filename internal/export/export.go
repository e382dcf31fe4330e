// Package export renders a finished worksheet response as a document.
// Renderers only lay out the fields they are given; nothing is re-derived.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"

	"github.com/ppiankov/aontas/internal/model"
)

const (
	MarkdownContentType = "text/markdown; charset=utf-8"
	HTMLContentType     = "text/html; charset=utf-8"
	MarkdownFilename    = "worksheet.md"
	HTMLFilename        = "worksheet.html"

	ldHeading = "Learning Differences (LD) — included"
	ldNote    = "Ensure multi-modal input, scaffolded output, and extra processing time."
	none      = "—"
)

// Markdown renders the worksheet: student text, exercises with the answer
// key, then the teacher panel. includeLD adds the learning differences note.
func Markdown(resp model.GenerationResponse, includeLD bool) string {
	var b strings.Builder

	heading(&b, 1, "Student Text")
	paragraph(&b, resp.StudentText)
	pageBreak(&b)

	heading(&b, 1, "Exercises")
	numbered(&b, resp.Exercises)
	heading(&b, 2, "Answer Key")
	numbered(&b, resp.AnswerKey)
	pageBreak(&b)

	panel := resp.TeacherPanel
	heading(&b, 1, "Teacher Panel")
	heading(&b, 2, "CEFR rationale")
	paragraph(&b, orNone(panel.CEFRRationale))

	heading(&b, 2, "Sensitive content flags")
	flags := strings.Join(panel.SensitiveFlags, ", ")
	if flags == "" {
		flags = "None detected."
	}
	paragraph(&b, flags)

	heading(&b, 2, "Inclusive-language notes")
	bullets(&b, panel.InclusiveNotes)

	heading(&b, 2, "Differentiation")
	bullets(&b, panel.Differentiation)

	if includeLD {
		heading(&b, 2, ldHeading)
		paragraph(&b, ldNote)
	}

	heading(&b, 2, "Pre-teach vocabulary")
	bullets(&b, panel.PreteachVocab)

	heading(&b, 2, "Source verification")
	verification := none
	if v := resp.SourceVerification; v != nil {
		verification = fmt.Sprintf("%s • score %d/100", v.Verdict, v.Score)
	}
	paragraph(&b, verification)
	if panel.SourceNotes != "" {
		paragraph(&b, panel.SourceNotes)
	}
	paragraph(&b, "Source: "+orNone(resp.Source))
	paragraph(&b, resp.Credit)

	return b.String()
}

// HTML renders the worksheet as a standalone printable page. Raw HTML in
// model output is dropped by the markdown renderer.
func HTML(resp model.GenerationResponse, includeLD bool) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(resp, includeLD)), &body); err != nil {
		return nil, eris.Wrap(err, "convert markdown")
	}

	var page bytes.Buffer
	page.WriteString(pageHead)
	page.Write(body.Bytes())
	page.WriteString(pageTail)
	return page.Bytes(), nil
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Worksheet</title>
<style>
body { font-family: Calibri, Arial, sans-serif; font-size: 12pt; line-height: 1.4; max-width: 42em; margin: 2em auto; }
hr { border: 0; page-break-after: always; break-after: page; }
h1 { font-size: 18pt; } h2 { font-size: 14pt; }
</style>
</head>
<body>
`

const pageTail = `</body>
</html>
`

func heading(b *strings.Builder, level int, text string) {
	b.WriteString(strings.Repeat("#", level))
	b.WriteString(" ")
	b.WriteString(text)
	b.WriteString("\n\n")
}

func paragraph(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.WriteString(text)
	b.WriteString("\n\n")
}

func numbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, singleLine(item))
	}
	if len(items) > 0 {
		b.WriteString("\n")
	}
}

func bullets(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", singleLine(item))
	}
	if len(items) > 0 {
		b.WriteString("\n")
	}
}

func pageBreak(b *strings.Builder) {
	b.WriteString("---\n\n")
}

// singleLine keeps a list item from breaking out of its list
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}
