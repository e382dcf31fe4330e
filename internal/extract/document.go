package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"mime"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Kind classifies a fetched body
type Kind int

const (
	KindHTML Kind = iota
	KindPlain
	KindPDF
	KindDOCX
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DetectKind classifies a body by Content-Type, falling back to magic bytes
func DetectKind(contentType string, body []byte) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case mediaType == "application/pdf":
		return KindPDF
	case mediaType == docxMIME:
		return KindDOCX
	case mediaType == "text/plain":
		return KindPlain
	case bytes.HasPrefix(body, []byte("%PDF-")):
		return KindPDF
	}
	return KindHTML
}

// PDFText extracts the plain text of every page of a PDF document.
// The pdf reader panics on some malformed files; that is reported as an error.
func PDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", eris.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "open pdf")
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", eris.New("no extractable text found in pdf")
	}
	return CollapseWhitespace(b.String()), nil
}

// DOCXText extracts the text runs of a Word document
func DOCXText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "open docx zip")
	}

	var body []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", eris.Wrap(err, "open document.xml")
		}
		body, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", eris.Wrap(err, "read document.xml")
		}
		break
	}
	if len(body) == 0 {
		return "", eris.New("word/document.xml not found")
	}

	decoder := xml.NewDecoder(bytes.NewReader(body))
	var b strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", eris.Wrap(err, "decode document.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "p", "tab", "br":
				b.WriteString(" ")
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return CollapseWhitespace(b.String()), nil
}
