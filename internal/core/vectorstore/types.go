package vectorstore

// Type represents the type of vector store.
type Type string

const (
	// TypeWeaviate represents a Weaviate vector store.
	TypeWeaviate Type = "weaviate"
)
