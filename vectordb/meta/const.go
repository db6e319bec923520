package meta

// Well-known collection metadata keys.
const (
	Description = "description"
	Source      = "source"
)
