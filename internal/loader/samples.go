// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package loader

import "github.com/raglet-dev/raglet/internal/store"

// SampleDocuments returns a small set of documents for trying the
// pipeline without uploading anything.
func SampleDocuments() []store.Document {
	return []store.Document{
		{
			ID:          "sample-rag",
			Name:        "sample-rag",
			ContentType: "text/plain",
			Source:      "sample: retrieval-augmented generation",
			Content: "Retrieval-augmented generation (RAG) answers questions by first " +
				"retrieving relevant passages from a document collection and then " +
				"conditioning a language model on those passages. Because every answer " +
				"is grounded in retrieved text, the system can cite its sources and " +
				"admit when the collection contains nothing relevant. The two core " +
				"flows are ingestion, which chunks and embeds documents into a vector " +
				"index, and querying, which embeds the question, finds the nearest " +
				"chunks, and assembles them into a bounded prompt.",
		},
		{
			ID:          "sample-embeddings",
			Name:        "sample-embeddings",
			ContentType: "text/plain",
			Source:      "sample: embeddings",
			Content: "An embedding maps text to a fixed-length vector so that " +
				"semantically similar texts end up close together. Similarity between " +
				"vectors is usually measured with cosine similarity. All vectors in " +
				"one index must come from the same embedding model: mixing models " +
				"changes the geometry and makes distances meaningless, which is why " +
				"switching embedders requires re-indexing every document.",
		},
		{
			ID:          "sample-chunking",
			Name:        "sample-chunking",
			ContentType: "text/plain",
			Source:      "sample: chunking",
			Content: "Documents are split into overlapping chunks before embedding. " +
				"The overlap ensures a sentence that spans a chunk boundary appears " +
				"whole in at least one chunk. Smaller chunks give more precise " +
				"retrieval but less context per hit; larger chunks give richer " +
				"context but dilute the embedding. A common starting point is chunks " +
				"of about a thousand characters with a two hundred character overlap.",
		},
	}
}
