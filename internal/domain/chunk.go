package domain

import "fmt"

// Chunk is a contiguous span of advisory document text. Chunks from the same
// document overlap by a fixed tail so context survives the boundary.
type Chunk struct {
	ID        string
	Source    string
	PageStart int
	PageEnd   int
	Heading   string
	Text      string
}

// ChunkID derives the stable chunk identifier from its source label and ordinal.
func ChunkID(source string, ordinal int) string {
	return fmt.Sprintf("%s-%d", source, ordinal)
}

// ChunkRecord pairs a chunk with its normalized embedding for storage in the
// vector index. Records are immutable once stored.
type ChunkRecord struct {
	Chunk
	Filename  string
	Embedding []float32
}

// ScoredChunk is a retrieval result: a chunk plus its cosine similarity to the query.
type ScoredChunk struct {
	Chunk
	Score float32
}
