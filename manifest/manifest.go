// Package manifest binds a persist directory to the backend that created it.
package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/vecboot/vectordb"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the manifest file written in the persist directory.
	FileName = "vecboot.yaml"
	// FormatVersion is bumped when the on-disk layout changes incompatibly.
	FormatVersion = 1
)

// ErrCorrupt indicates a manifest whose checksum does not match its content.
var ErrCorrupt = errors.New("manifest: checksum mismatch")

var key = []byte("vecboot-manifest-0123456789ABCDE")

// Manifest describes what owns a persist directory.
type Manifest struct {
	Backend       string    `yaml:"backend"`
	FormatVersion int       `yaml:"formatVersion"`
	CreatedAt     time.Time `yaml:"createdAt"`
	Checksum      string    `yaml:"checksum"`
}

// Sum computes the manifest checksum over its identifying fields.
func (m *Manifest) Sum() (string, error) {
	h, err := highwayhash.New64(key)
	if err != nil {
		return "", err
	}
	payload := m.Backend + "|" + strconv.Itoa(m.FormatVersion) + "|" + m.CreatedAt.UTC().Format(time.RFC3339Nano)
	if _, err = h.Write([]byte(payload)); err != nil {
		return "", err
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

// Service reads and writes manifests.
type Service struct {
	fs  afs.Service
	now func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithFS sets the storage service.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a manifest Service.
func New(opts ...Option) *Service {
	s := &Service{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	return s
}

// URL returns the manifest location for dir.
func URL(dir string) string {
	return url.Join(dir, FileName)
}

// Load returns the manifest stored in dir, or nil when absent.
func (s *Service) Load(ctx context.Context, dir string) (*Manifest, error) {
	location := URL(dir)
	ok, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, err
	}
	ret := &Manifest{}
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("manifest: decode %s: %w", location, err)
	}
	sum, err := ret.Sum()
	if err != nil {
		return nil, err
	}
	if sum != ret.Checksum {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, location)
	}
	return ret, nil
}

// Save writes the manifest to dir.
func (s *Service) Save(ctx context.Context, dir string, m *Manifest) error {
	sum, err := m.Sum()
	if err != nil {
		return err
	}
	m.Checksum = sum
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	location := URL(dir)
	if ok, _ := s.fs.Exists(ctx, location); ok {
		_ = s.fs.Delete(ctx, location)
	}
	return s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data))
}

// Ensure writes a manifest for backend when dir has none, otherwise verifies
// the existing one belongs to backend and to the current format version.
func (s *Service) Ensure(ctx context.Context, dir string, backend vectordb.Backend) (*Manifest, error) {
	existing, err := s.Verify(ctx, dir, backend)
	if err != nil || existing != nil {
		return existing, err
	}
	m := &Manifest{
		Backend:       string(backend),
		FormatVersion: FormatVersion,
		CreatedAt:     s.now().UTC().Truncate(time.Second),
	}
	if err := s.Save(ctx, dir, m); err != nil {
		return nil, fmt.Errorf("manifest: save %s: %w", URL(dir), err)
	}
	return m, nil
}

// Verify checks the manifest in dir without writing; it returns nil when absent.
func (s *Service) Verify(ctx context.Context, dir string, backend vectordb.Backend) (*Manifest, error) {
	existing, err := s.Load(ctx, dir)
	if err != nil || existing == nil {
		return nil, err
	}
	if existing.Backend != string(backend) {
		return nil, fmt.Errorf("%w: %s was created by backend %q, configured backend is %q",
			vectordb.ErrIncompatibleFormat, dir, existing.Backend, backend)
	}
	if existing.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %s has format version %d, expected %d",
			vectordb.ErrIncompatibleFormat, dir, existing.FormatVersion, FormatVersion)
	}
	return existing, nil
}
