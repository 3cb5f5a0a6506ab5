// Package embeddings defines the Provider interface for text-embedding backends.
//
// An embeddings provider maps short utterances to dense float32 vectors. The
// checklist matcher uses these vectors to score a spoken destination phrase
// against the configured destination pool by cosine similarity, so that "I'm
// heading to the fitness studio" can land on "gym" without an exact keyword.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by a single Provider instance share the same
// dimensionality (see Dimensions). Vectors from different instances must not
// be compared unless both use the same model.
type Provider interface {
	// Embed computes the embedding vector for a single text. The text is passed
	// through verbatim; any model-specific prefixing is the caller's concern.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for a slice of texts in one provider call.
	// The result has the same length and order as texts. On error the whole
	// result is nil; partial batches are never returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length produced by this provider.
	Dimensions() int

	// ModelID returns the provider-specific model identifier, for logging and
	// for checking that pool and query vectors come from the same space.
	ModelID() string
}
