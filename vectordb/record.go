package vectordb

import (
	"fmt"
	"sort"
	"time"

	"github.com/viant/bintly"
	"github.com/viant/vecboot/schema"
)

var (
	writers = bintly.NewWriters()
	readers = bintly.NewReaders()
)

// Record is the binary form of a collection used by key-value stores.
type Record schema.Collection

// EncodeBinary encodes the record to a binary stream
func (r *Record) EncodeBinary(stream *bintly.Writer) error {
	stream.String(r.ID)
	stream.String(r.Name)
	stream.Time(r.CreatedAt)
	if len(r.Metadata) > 1<<15-1 {
		return fmt.Errorf("record %v: too many metadata entries: %d", r.Name, len(r.Metadata))
	}
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	stream.Int16(int16(len(keys)))
	for _, k := range keys {
		stream.String(k)
		stream.String(r.Metadata[k])
	}
	return nil
}

// DecodeBinary decodes the record from a binary stream
func (r *Record) DecodeBinary(stream *bintly.Reader) error {
	stream.String(&r.ID)
	stream.String(&r.Name)
	var created time.Time
	stream.Time(&created)
	r.CreatedAt = created
	var size int16
	stream.Int16(&size)
	if size < 0 {
		return fmt.Errorf("record %v: invalid metadata size: %d", r.Name, size)
	}
	r.Metadata = nil
	if size > 0 {
		r.Metadata = make(map[string]string, size)
	}
	for i := 0; i < int(size); i++ {
		var key, value string
		stream.String(&key)
		stream.String(&value)
		r.Metadata[key] = value
	}
	return nil
}

// EncodeCollection returns the binary form of a collection.
func EncodeCollection(c *schema.Collection) ([]byte, error) {
	w := writers.Get()
	defer writers.Put(w)
	if err := (*Record)(c).EncodeBinary(w); err != nil {
		return nil, err
	}
	bs := w.Bytes()
	ret := make([]byte, len(bs))
	copy(ret, bs)
	return ret, nil
}

// DecodeCollection decodes a collection encoded with EncodeCollection.
func DecodeCollection(data []byte) (*schema.Collection, error) {
	r := readers.Get()
	defer readers.Put(r)
	if err := r.FromBytes(data); err != nil {
		return nil, err
	}
	rec := &Record{}
	if err := rec.DecodeBinary(r); err != nil {
		return nil, err
	}
	return (*schema.Collection)(rec), nil
}

// SortCollections orders collections by name.
func SortCollections(items []*schema.Collection) {
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
}
