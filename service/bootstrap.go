package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/vecboot/schema"
	"github.com/viant/vecboot/vectordb"
)

// ReadyMessage is printed once per ensured collection.
const ReadyMessage = "Collection '%s' is ready!"

// Bootstrap ensures every configured collection exists. Readiness lines are
// written once all get-or-create calls succeeded and the store closed cleanly.
func (s *Service) Bootstrap(ctx context.Context) ([]*schema.Collection, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	ret, err := s.ensureCollections(ctx)
	if err != nil {
		return nil, err
	}
	var lines bytes.Buffer
	for _, c := range ret {
		fmt.Fprintf(&lines, ReadyMessage+"\n", c.Name)
	}
	if _, err := s.output.Write(lines.Bytes()); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) ensureCollections(ctx context.Context) (ret []*schema.Collection, err error) {
	sess, err := s.openSession(ctx, true)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := sess.close(); cErr != nil && err == nil {
			ret, err = nil, fmt.Errorf("close store: %w", cErr)
		}
	}()
	for _, item := range s.config.Collections {
		c, err := sess.store.GetOrCreateCollection(ctx, item.Name, item.Metadata)
		if err != nil {
			return nil, fmt.Errorf("get or create collection %s: %w", item.Name, err)
		}
		s.log("collection %s id=%s", c.Name, c.ID)
		ret = append(ret, c)
	}
	return ret, nil
}

// List returns all collections of an existing store.
func (s *Service) List(ctx context.Context) (ret []*schema.Collection, err error) {
	sess, err := s.openSession(ctx, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := sess.close(); cErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cErr)
		}
	}()
	return sess.store.ListCollections(ctx)
}

// Check verifies every configured collection exists without writing to the persist directory.
func (s *Service) Check(ctx context.Context) (ret []*schema.Collection, err error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.openSession(ctx, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := sess.close(); cErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cErr)
		}
	}()
	var missing []string
	for _, item := range s.config.Collections {
		c, err := sess.store.GetCollection(ctx, item.Name)
		if errors.Is(err, vectordb.ErrCollectionNotFound) {
			missing = append(missing, item.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get collection %s: %w", item.Name, err)
		}
		ret = append(ret, c)
	}
	if len(missing) > 0 {
		return ret, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, strings.Join(missing, ", "))
	}
	return ret, nil
}
