package mem

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/bintly"
	"github.com/viant/vecboot/schema"
	"github.com/viant/vecboot/vectordb"
)

// AssetName is the collections file written under the base URL.
const AssetName = "collections.bin"

var (
	writers = bintly.NewWriters()
	readers = bintly.NewReaders()
)

func (s *Store) assetURL() string {
	return url.Join(s.baseURL, AssetName)
}

func (s *Store) load(ctx context.Context) error {
	if s.baseURL == "" {
		return nil
	}
	assetURL := s.assetURL()
	ok, err := s.fs.Exists(ctx, assetURL)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	data, err := s.fs.DownloadWithURL(ctx, assetURL)
	if err != nil {
		return err
	}
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return err
	}
	var size int
	reader.Int(&size)
	if size < 0 {
		return fmt.Errorf("%w: invalid collection count %d", ErrCorrupt, size)
	}
	for i := 0; i < size; i++ {
		rec := &vectordb.Record{}
		if err := rec.DecodeBinary(reader); err != nil {
			return err
		}
		if rec.Name == "" {
			return fmt.Errorf("%w: empty collection name at %d", ErrCorrupt, i)
		}
		s.collections[rec.Name] = (*schema.Collection)(rec)
	}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	if s.baseURL == "" {
		return nil
	}
	writer := writers.Get()
	defer writers.Put(writer)
	items := make([]*schema.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		items = append(items, c)
	}
	vectordb.SortCollections(items)
	writer.Int(len(items))
	for _, c := range items {
		if err := (*vectordb.Record)(c).EncodeBinary(writer); err != nil {
			return err
		}
	}
	assetURL := s.assetURL()
	ok, err := s.fs.Exists(ctx, assetURL)
	if err != nil {
		return err
	}
	if ok {
		if err := s.fs.Delete(ctx, assetURL); err != nil {
			return err
		}
	}
	return s.fs.Upload(ctx, assetURL, file.DefaultFileOsMode, bytes.NewReader(writer.Bytes()))
}
