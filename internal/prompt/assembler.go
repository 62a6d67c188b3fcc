// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

// Package prompt assembles retrieved chunks and a question into the
// bounded prompt handed to a generation backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// DefaultMaxContextChars bounds the context block when no explicit
// budget is configured.
const DefaultMaxContextChars = 8000

// systemInstruction pins the model to the supplied context. Requiring
// an explicit insufficiency statement keeps unattributable answers
// from reaching the user without sources.
const systemInstruction = `You are a helpful assistant that answers questions using only the provided context.
Answer based ONLY on the context below. If the context does not contain enough information to answer, say so explicitly.
Be concise but informative, and mention which source document(s) you used.`

// emptyContextNotice replaces the context block when retrieval found
// nothing relevant.
const emptyContextNotice = "(no relevant context was found in the knowledge base; state that you have no relevant information)"

// Assembler formats scored chunks into a context block within a
// character budget.
type Assembler struct {
	maxContextChars int
}

// NewAssembler creates an Assembler. maxContextChars must be >= 1.
func NewAssembler(maxContextChars int) (*Assembler, error) {
	if maxContextChars < 1 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue,
			"max context chars must be >= 1, got %d", maxContextChars)
	}
	return &Assembler{maxContextChars: maxContextChars}, nil
}

// Prompt is the assembled generation input plus the chunks that made
// it into the context block, in order.
type Prompt struct {
	System string
	User   string
	Used   []store.ScoredChunk
}

// Assemble builds the prompt from the question and the retrieval
// result. Chunks are taken in the given (descending relevance) order;
// when the character budget would be exceeded, lower-ranked chunks are
// dropped whole. A higher-ranked chunk is never truncated to make room
// for a lower-ranked one.
func (a *Assembler) Assemble(question string, scored []store.ScoredChunk) Prompt {
	var parts []string
	var used []store.ScoredChunk
	total := 0

	for _, sc := range scored {
		section := fmt.Sprintf("Source: %s\n%s", sourceLabel(sc.Chunk), sc.Chunk.Text)
		if total+len(section) > a.maxContextChars {
			break
		}
		parts = append(parts, section)
		used = append(used, sc)
		total += len(section)
	}

	context := emptyContextNotice
	if len(parts) > 0 {
		context = strings.Join(parts, "\n\n")
	}

	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")

	return Prompt{
		System: systemInstruction,
		User:   sb.String(),
		Used:   used,
	}
}

// sourceLabel prefers the chunk's source metadata, falling back to the
// owning document id.
func sourceLabel(c store.Chunk) string {
	if src, ok := c.Metadata["source"]; ok && src != "" {
		return src
	}
	return c.DocumentID
}
