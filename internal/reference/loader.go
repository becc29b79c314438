package reference

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"

	"github.com/psi-indicator-engine/internal/domain"
	"gopkg.in/yaml.v3"
)

// Source produces a Reference from persisted data
type Source interface {
	Load(ctx context.Context) (*Reference, error)
	Name() string
}

// FileSource loads a YAML or JSON bundle from disk
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name identifies the source in logs
func (s *FileSource) Name() string {
	return "file:" + s.Path
}

// Load reads and validates the bundle
func (s *FileSource) Load(ctx context.Context) (*Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(s.Path)
}

// LoadFile loads a bundle file. JSON is accepted because it is valid YAML.
func LoadFile(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewReferenceLoadError(path, "cannot read bundle", err)
	}
	return Parse(data, path)
}

// Parse decodes bundle bytes and builds a Reference. Unknown keys are rejected.
func Parse(data []byte, source string) (*Reference, error) {
	b, err := DecodeBundle(data, source)
	if err != nil {
		return nil, err
	}
	return FromBundle(b, source, Digest(data))
}

// DecodeBundle decodes bundle bytes without building a Reference
func DecodeBundle(data []byte, source string) (Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return b, domain.NewReferenceLoadError(source, "bundle is empty", nil)
		}
		return b, domain.NewReferenceLoadError(source, "malformed bundle", err)
	}
	return b, nil
}

// ReadBundle reads a bundle file and returns it with its digest
func ReadBundle(path string) (Bundle, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, "", domain.NewReferenceLoadError(path, "cannot read bundle", err)
	}
	b, err := DecodeBundle(data, path)
	if err != nil {
		return Bundle{}, "", err
	}
	return b, Digest(data), nil
}

// Digest returns the sha256 of the raw bundle bytes with an algorithm prefix
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Marshal renders a bundle as YAML
func Marshal(b Bundle) ([]byte, error) {
	return yaml.Marshal(b)
}
