// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

// Package loader turns files on disk into documents with extracted
// plain text. The rest of the pipeline only ever sees decoded text;
// binary format handling stops here.
package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// Load reads the file at path and returns a document with its text
// extracted. The document id is the file's base name, which makes
// re-ingesting the same file replace its prior chunks. Supported
// extensions: .txt, .md, .markdown, .pdf, .docx.
func Load(path string) (store.Document, error) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	var (
		text        string
		contentType string
		err         error
	)

	switch ext {
	case ".txt":
		text, err = readTextFile(path)
		contentType = "text/plain"
	case ".md", ".markdown":
		text, err = readTextFile(path)
		contentType = "text/markdown"
	case ".pdf":
		text, err = extractPDF(path)
		contentType = "text/plain"
	case ".docx":
		text, err = extractDOCX(path)
		contentType = "text/plain"
	default:
		return store.Document{}, ragerr.Errorf(ragerr.CodeIngestUnsupportedType,
			"unsupported file extension %q", ext)
	}
	if err != nil {
		return store.Document{}, err
	}

	return store.Document{
		ID:          name,
		Name:        name,
		ContentType: contentType,
		Source:      name,
		Content:     text,
	}, nil
}

// SupportedExtensions lists the file extensions Load accepts.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown", ".pdf", ".docx"}
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ragerr.Wrapf(err, ragerr.CodeIngestLoadFailure, "reading %s", path)
	}
	return string(data), nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", ragerr.Wrapf(err, ragerr.CodeIngestLoadFailure, "opening pdf %s", path)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", ragerr.Wrapf(err, ragerr.CodeIngestLoadFailure, "extracting pdf page %d of %s", i, path)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", ragerr.Wrapf(err, ragerr.CodeIngestLoadFailure, "opening docx %s", path)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return stripDocxTags(content), nil
}

// stripDocxTags drops the XML tags the docx library leaves in the
// extracted content, keeping text runs separated by newlines.
func stripDocxTags(content string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			sb.WriteRune('\n')
		case !inTag:
			sb.WriteRune(r)
		}
	}

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
