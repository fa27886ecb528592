// Package scene reads the list of objects to merge and their placements.
package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshmerge/pkg/mesh"
)

// Scene file errors.
var (
	ErrUnsupportedScene = errors.New("unsupported scene file")
	ErrInvalidScene     = errors.New("invalid scene")
)

// Object is one placed source mesh.
type Object struct {
	Source      string
	Translation mgl64.Vec3
	Rotation    mgl64.Vec3 // Euler angles in degrees
	Scale       mgl64.Vec3
	Material    string
	Refine      *int // overrides the configured refine rules when set
}

// Placement returns the object's world placement.
func (o Object) Placement() mesh.Placement {
	return mesh.Placement{
		Translation: o.Translation,
		Rotation:    o.Rotation,
		Scale:       o.Scale,
	}
}

// Scene is an ordered object list. Order decides which duplicate vertex keeps
// its normal when the objects are merged.
type Scene struct {
	Path    string
	Objects []Object
}

// Dir returns the directory relative sources are resolved against.
func (s *Scene) Dir() string {
	if s.Path == "" {
		return ""
	}
	return filepath.Dir(s.Path)
}

// Sources returns the distinct source references in first-use order.
func (s *Scene) Sources() []string {
	seen := make(map[string]bool, len(s.Objects))
	var out []string
	for _, o := range s.Objects {
		if !seen[o.Source] {
			seen[o.Source] = true
			out = append(out, o.Source)
		}
	}
	return out
}

// fileScene is the on-disk layout. JSON keeps the PascalCase keys scene files
// have always used; YAML and TOML use snake_case.
type fileScene struct {
	Objects []fileObject `json:"Objects" yaml:"objects" toml:"objects"`
}

type fileObject struct {
	SourceFile  string    `json:"SourceFile" yaml:"source_file" toml:"source_file"`
	Translation []float64 `json:"Translation" yaml:"translation" toml:"translation"`
	Rotation    []float64 `json:"Rotation" yaml:"rotation" toml:"rotation"`
	Scale       []float64 `json:"Scale" yaml:"scale" toml:"scale"`
	Material    string    `json:"Material" yaml:"material" toml:"material"`
	Refine      *int      `json:"Refine" yaml:"refine" toml:"refine"`
}

// Load reads a scene file from disk.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	s, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	s.Path = path
	return s, nil
}

// Parse decodes scene data, choosing the codec from name's extension.
func Parse(name string, data []byte) (*Scene, error) {
	var fs fileScene
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		err = json.Unmarshal(data, &fs)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fs)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).Decode(&fs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScene, filepath.Base(name))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScene, filepath.Base(name), err)
	}

	s := &Scene{Objects: make([]Object, 0, len(fs.Objects))}
	for i, fo := range fs.Objects {
		o, err := fo.object()
		if err != nil {
			return nil, fmt.Errorf("%w: object %d: %v", ErrInvalidScene, i, err)
		}
		s.Objects = append(s.Objects, o)
	}
	return s, nil
}

func (fo fileObject) object() (Object, error) {
	if strings.TrimSpace(fo.SourceFile) == "" {
		return Object{}, errors.New("missing source file")
	}
	if fo.Refine != nil && *fo.Refine < 0 {
		return Object{}, fmt.Errorf("negative refine %d", *fo.Refine)
	}

	o := Object{
		Source:   fo.SourceFile,
		Material: fo.Material,
		Refine:   fo.Refine,
	}
	var err error
	if o.Translation, err = vec3("translation", fo.Translation, 0); err != nil {
		return Object{}, err
	}
	if o.Rotation, err = vec3("rotation", fo.Rotation, 0); err != nil {
		return Object{}, err
	}
	if o.Scale, err = vec3("scale", fo.Scale, 1); err != nil {
		return Object{}, err
	}
	return o, nil
}

func vec3(field string, v []float64, fill float64) (mgl64.Vec3, error) {
	if v == nil {
		return mgl64.Vec3{fill, fill, fill}, nil
	}
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%s needs 3 components, got %d", field, len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}
