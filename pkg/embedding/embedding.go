// Package embedding turns text into fixed-length vectors for similarity search.
package embedding

import (
	"context"
	"fmt"
)

// Mode selects how a text is embedded. Documents are embedded for being
// retrieved, queries for retrieving them. Both modes of one Provider produce
// vectors that are comparable with cosine similarity.
type Mode string

const (
	ModeDocument Mode = "DOCUMENT"
	ModeQuery    Mode = "QUERY"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeDocument || m == ModeQuery
}

// Provider computes embeddings.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	// Every vector has Dimensions() elements.
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)

	// Dimensions returns the length of every vector returned by Embed.
	Dimensions() int

	// ModelName returns the embedding model identifier.
	ModelName() string
}

// checkVectors validates the shape of a provider response.
func checkVectors(vectors [][]float32, want, dims int) error {
	if len(vectors) != want {
		return fmt.Errorf("expected %d embeddings, got %d", want, len(vectors))
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(v), dims)
		}
	}
	return nil
}
