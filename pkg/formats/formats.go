// Package formats provides readers and writers for mesh file formats.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshmerge/pkg/mesh"
)

// ErrUnsupportedFormat is returned for file names whose extension has no codec.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Format identifies a mesh file format.
type Format string

// Known formats.
const (
	FormatOBJ  Format = "obj"
	FormatGLTF Format = "gltf"
	FormatGLB  Format = "glb"
)

// FormatOf picks the format from a file name's extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".obj":
		return FormatOBJ, nil
	case ".gltf":
		return FormatGLTF, nil
	case ".glb":
		return FormatGLB, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(name))
	}
}

// Supported reports whether name has an extension Decode and Encode understand.
func Supported(name string) bool {
	_, err := FormatOf(name)
	return err == nil
}

// Decode parses mesh data, choosing the codec from name's extension.
func Decode(name string, data []byte) (*mesh.Mesh, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatOBJ:
		return DecodeOBJ(bytes.NewReader(data))
	default:
		return DecodeGLTF(data)
	}
}

// DecodeFile reads and parses a mesh file from disk.
func DecodeFile(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	return Decode(path, data)
}

// Encode writes m to w in the format named by name's extension.
func Encode(w io.Writer, name string, m *mesh.Mesh) error {
	format, err := FormatOf(name)
	if err != nil {
		return err
	}
	switch format {
	case FormatOBJ:
		return EncodeOBJ(w, m)
	case FormatGLB:
		return EncodeGLTF(w, m, true)
	default:
		return EncodeGLTF(w, m, false)
	}
}
