package schema

import "time"

// Collection represents a named grouping of stored items in a vector store.
type Collection struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt" yaml:"createdAt"`
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	ret := *c
	if c.Metadata != nil {
		ret.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			ret.Metadata[k] = v
		}
	}
	return &ret
}
