package store

// Type represents the type of conversation store.
type Type string

const (
	// TypeMongoDB represents a MongoDB-backed store.
	TypeMongoDB Type = "mongodb"
)

// SortOrder represents the sort direction for ordered reads.
type SortOrder string

const (
	// SortOrderAsc represents ascending order by creation time.
	SortOrderAsc SortOrder = "asc"
	// SortOrderDesc represents descending order by creation time.
	SortOrderDesc SortOrder = "desc"
)
