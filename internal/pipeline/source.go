// Package pipeline merges placed source meshes into one welded mesh and writes
// the result.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Faultbox/meshmerge/internal/assets"
	"github.com/Faultbox/meshmerge/pkg/formats"
	"github.com/Faultbox/meshmerge/pkg/mesh"
)

// Source turns a source reference into local geometry, refined passes times.
// Implementations must be safe for concurrent use.
type Source interface {
	Load(ctx context.Context, ref string, passes int) (*mesh.Mesh, error)
}

// LoadError reports a source that is missing or could not be decoded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FileSource loads sources from disk through an asset manager, resolving
// relative references against Base first.
type FileSource struct {
	Assets *assets.Manager
	Base   string
}

// NewFileSource creates a file source.
func NewFileSource(m *assets.Manager, base string) *FileSource {
	return &FileSource{Assets: m, Base: base}
}

// Path resolves a source reference to the file it loads from.
func (s *FileSource) Path(ref string) (string, error) {
	return s.Assets.Resolve(ref, s.Base)
}

// Load reads, decodes and refines one source.
func (s *FileSource) Load(ctx context.Context, ref string, passes int) (*mesh.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.Path(ref)
	if err != nil {
		return nil, err
	}
	data, err := s.Assets.Load(path)
	if err != nil {
		return nil, err
	}
	m, err := formats.Decode(path, data)
	if err != nil {
		return nil, err
	}
	if passes > 0 {
		return mesh.Subdivide(m, passes)
	}
	return m, nil
}

// RefineRule subdivides sources whose base name matches Match.
type RefineRule struct {
	Match  string
	Passes int
}

// RefinePolicy picks the refinement pass count for a source. The first matching
// rule wins; no match means no refinement.
type RefinePolicy []RefineRule

// Passes returns the number of refinement passes for ref.
func (p RefinePolicy) Passes(ref string) int {
	base := filepath.Base(filepath.ToSlash(ref))
	for _, r := range p {
		if ok, _ := filepath.Match(r.Match, base); ok {
			return r.Passes
		}
	}
	return 0
}
