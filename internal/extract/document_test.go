package extract

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestDOCXText(t *testing.T) {
	raw := buildDOCX(t, `<w:document><w:body><w:p><w:r><w:t>Chapter 1</w:t></w:r></w:p><w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world.</w:t></w:r></w:p></w:body></w:document>`)

	got, err := DOCXText(raw)
	if err != nil {
		t.Fatalf("DOCXText failed: %v", err)
	}
	if got != "Chapter 1 Hello world." {
		t.Errorf("Unexpected text: %q", got)
	}
}

func TestDOCXText_MissingDocument(t *testing.T) {
	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	if _, err := DOCXText(b.Bytes()); err == nil {
		t.Fatal("Expected error for docx without document.xml")
	}
}

func TestDOCXText_NotZip(t *testing.T) {
	if _, err := DOCXText([]byte("plain text")); err == nil {
		t.Fatal("Expected error for non-zip input")
	}
}

func TestPDFText_Invalid(t *testing.T) {
	if _, err := PDFText([]byte("%PDF-1.4 truncated")); err == nil {
		t.Fatal("Expected error for truncated pdf")
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        Kind
	}{
		{"html", "text/html; charset=utf-8", []byte("<html>"), KindHTML},
		{"pdf header", "application/pdf", nil, KindPDF},
		{"pdf magic", "application/octet-stream", []byte("%PDF-1.7"), KindPDF},
		{"docx", docxMIME, nil, KindDOCX},
		{"plain", "text/plain", []byte("hi"), KindPlain},
		{"missing", "", []byte("<p>hi</p>"), KindHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKind(tt.contentType, tt.body); got != tt.want {
				t.Errorf("DetectKind(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func buildDOCX(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?>` + bodyXML
	if _, err := f.Write([]byte(doc)); err != nil {
		t.Fatalf("write xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return b.Bytes()
}
