// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package chunk

import (
	"fmt"
	"strings"

	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// Splitter cuts document text into overlapping windows of at most Size
// characters. Full windows advance by Size-Overlap so consecutive full
// chunks share exactly Overlap characters; whatever text remains past
// the last full window becomes the final, shorter chunk. Window ends
// prefer a paragraph or sentence boundary when one falls close enough,
// falling back to a hard character cut.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the chunking parameters. Overlap must leave the
// window room to advance.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size < 1 {
		return nil, ragerr.Errorf(ragerr.CodeRequestInvalidArgument, "chunk size must be >= 1, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, ragerr.Errorf(ragerr.CodeRequestInvalidArgument, "chunk overlap must be in [0, size), got %d", overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split chunks the document's content. Offsets are character (rune)
// positions into the content. The document must carry extracted plain
// text; binary content types are rejected.
func (s *Splitter) Split(doc store.Document) ([]store.Chunk, error) {
	if !isTextContentType(doc.ContentType) {
		return nil, ragerr.New(ragerr.CodeIngestUnsupportedType,
			"content type is not extracted text",
			ragerr.FieldDocumentID(doc.ID),
			ragerr.Field("content_type", doc.ContentType),
		)
	}

	runes := []rune(doc.Content)
	if len(strings.TrimSpace(doc.Content)) == 0 {
		return nil, ragerr.New(ragerr.CodeIngestEmptyDocument, "document has no content", ragerr.FieldDocumentID(doc.ID))
	}

	var spans [][2]int
	start := 0
	for start+s.size <= len(runes) {
		end := s.preferBoundary(runes, start, start+s.size)
		spans = append(spans, [2]int{start, end})
		start = end - s.overlap
	}

	// Tail past the last full window. It begins where the previous
	// chunk ended, so the final chunk carries no leading overlap.
	tailStart := 0
	if n := len(spans); n > 0 {
		tailStart = spans[n-1][1]
	}
	if tailStart < len(runes) {
		spans = append(spans, [2]int{tailStart, len(runes)})
	}

	chunks := make([]store.Chunk, 0, len(spans))
	for i, span := range spans {
		text := string(runes[span[0]:span[1]])
		chunks = append(chunks, store.Chunk{
			ID:         fmt.Sprintf("%s:%d", doc.ID, i),
			DocumentID: doc.ID,
			Ordinal:    i,
			Text:       text,
			Start:      span[0],
			End:        span[1],
			Metadata:   chunkMetadata(doc),
		})
	}
	return chunks, nil
}

// preferBoundary pulls a hard cut at end back to the nearest paragraph
// break, or failing that sentence end, within a bounded backtrack
// region. The region never reaches into the overlap zone, so the window
// always advances.
func (s *Splitter) preferBoundary(runes []rune, start, end int) int {
	backtrack := s.size / 5
	if max := end - start - s.overlap - 1; backtrack > max {
		backtrack = max
	}
	if backtrack <= 0 {
		return end
	}
	floor := end - backtrack

	for i := end - 1; i >= floor; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i >= floor; i-- {
		if isSentenceEnd(runes, i) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?':
	default:
		return false
	}
	// Require trailing whitespace so decimals and abbreviations mid-word
	// don't count.
	return i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t')
}

func chunkMetadata(doc store.Document) map[string]string {
	m := map[string]string{"document_id": doc.ID}
	if doc.Name != "" {
		m["source"] = doc.Name
	} else if doc.Source != "" {
		m["source"] = doc.Source
	}
	if doc.ContentType != "" {
		m["content_type"] = doc.ContentType
	}
	return m
}

func isTextContentType(ct string) bool {
	switch {
	case ct == "":
		return true
	case strings.HasPrefix(ct, "text/"):
		return true
	case ct == "application/json", ct == "application/xml":
		return true
	default:
		return false
	}
}
