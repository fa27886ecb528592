package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshmerge/pkg/mesh"
)

// OBJ format errors.
var (
	ErrMalformedOBJ = errors.New("malformed OBJ")
)

// maxOBJLine bounds a single OBJ statement.
const maxOBJLine = 1 << 20

// objCorner ties a face corner's vertex to the normal it references.
type objCorner struct {
	vertex int
	normal int // -1 when the corner has no normal
}

type objDecoder struct {
	positions []mgl64.Vec3
	normals   []mgl64.Vec3
	faces     []mesh.Face
	corners   []objCorner
	line      int
}

// DecodeOBJ reads vertex positions, vertex normals and faces from OBJ text.
//
// Every `v` statement becomes one vertex. A vertex takes the first `vn` that any
// face corner pairs with it; vertices never paired with a normal get an
// area-weighted normal computed from the faces. Polygons are split into triangle
// fans. Face indices are resolved (1-based or negative relative) but not range
// checked. Texture coordinates, groups and materials are ignored.
func DecodeOBJ(r io.Reader) (*mesh.Mesh, error) {
	dec := &objDecoder{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxOBJLine)
	for scanner.Scan() {
		dec.line++
		if err := dec.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	return dec.build(), nil
}

func (d *objDecoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := d.parseVec3(fields[1:])
		if err != nil {
			return err
		}
		d.positions = append(d.positions, v)
	case "vn":
		n, err := d.parseVec3(fields[1:])
		if err != nil {
			return err
		}
		d.normals = append(d.normals, n)
	case "f":
		return d.parseFace(fields[1:])
	}
	// vt, o, g, s, usemtl, mtllib and anything else carry nothing we keep.
	return nil
}

func (d *objDecoder) parseVec3(fields []string) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	if len(fields) < 3 {
		return v, d.errorf("expected 3 coordinates, got %d", len(fields))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return v, d.errorf("bad coordinate %q", fields[i])
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v, d.errorf("non-finite coordinate %q", fields[i])
		}
		v[i] = f
	}
	return v, nil
}

func (d *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return d.errorf("face needs at least 3 corners, got %d", len(fields))
	}

	corners := make([]objCorner, len(fields))
	for i, field := range fields {
		c, err := d.parseCorner(field)
		if err != nil {
			return err
		}
		corners[i] = c
	}
	d.corners = append(d.corners, corners...)

	// Fan around the first corner keeps the polygon's winding.
	for i := 2; i < len(corners); i++ {
		d.faces = append(d.faces, mesh.Face{corners[0].vertex, corners[i-1].vertex, corners[i].vertex})
	}
	return nil
}

// parseCorner reads "v", "v/vt", "v//vn" or "v/vt/vn".
func (d *objDecoder) parseCorner(field string) (objCorner, error) {
	parts := strings.Split(field, "/")
	if len(parts) > 3 {
		return objCorner{}, d.errorf("bad face corner %q", field)
	}

	v, err := d.resolve(parts[0], len(d.positions))
	if err != nil {
		return objCorner{}, err
	}
	c := objCorner{vertex: v, normal: -1}

	if len(parts) == 3 && parts[2] != "" {
		n, err := d.resolve(parts[2], len(d.normals))
		if err != nil {
			return objCorner{}, err
		}
		c.normal = n
	}
	return c, nil
}

// resolve turns a 1-based or negative relative OBJ index into a 0-based one.
func (d *objDecoder) resolve(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, d.errorf("bad index %q", s)
	}
	switch {
	case i > 0:
		return i - 1, nil
	case i < 0:
		return count + i, nil
	default:
		return 0, d.errorf("index 0 is not valid, OBJ indices start at 1")
	}
}

func (d *objDecoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedOBJ, d.line, fmt.Sprintf(format, args...))
}

func (d *objDecoder) build() *mesh.Mesh {
	n := len(d.positions)
	normals := make([]mgl64.Vec3, n)
	assigned := make([]bool, n)
	missing := 0

	for _, c := range d.corners {
		if c.vertex < 0 || c.vertex >= n || assigned[c.vertex] {
			continue
		}
		if c.normal >= 0 && c.normal < len(d.normals) {
			normals[c.vertex] = d.normals[c.normal]
			assigned[c.vertex] = true
		}
	}
	for _, ok := range assigned {
		if !ok {
			missing++
		}
	}

	if missing > 0 {
		computed := mesh.ComputeNormals(d.positions, d.faces)
		for i, ok := range assigned {
			if !ok {
				normals[i] = computed[i]
			}
		}
	}

	positions := d.positions
	if positions == nil {
		positions = []mgl64.Vec3{}
	}
	faces := d.faces
	if faces == nil {
		faces = []mesh.Face{}
	}
	return &mesh.Mesh{Positions: positions, Normals: normals, Faces: faces}
}

// EncodeOBJ writes m as OBJ text: all `v` lines, then all `vn` lines, then one
// `f a//a b//b c//c` line per triangle with 1-based indices. Position and normal
// indices are always the same.
func EncodeOBJ(w io.Writer, m *mesh.Mesh) error {
	if err := m.Validate(-1); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# meshmerge: %d vertices, %d faces\n", len(m.Positions), len(m.Faces))

	buf := make([]byte, 0, 96)
	writeVec := func(prefix string, v mgl64.Vec3) {
		buf = append(buf[:0], prefix...)
		for _, c := range v {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, c, 'f', -1, 64)
		}
		buf = append(buf, '\n')
		bw.Write(buf)
	}

	for _, p := range m.Positions {
		writeVec("v", p)
	}
	for _, n := range m.Normals {
		writeVec("vn", n)
	}
	for _, f := range m.Faces {
		buf = append(buf[:0], 'f')
		for _, idx := range f {
			buf = append(buf, ' ')
			buf = strconv.AppendInt(buf, int64(idx+1), 10)
			buf = append(buf, '/', '/')
			buf = strconv.AppendInt(buf, int64(idx+1), 10)
		}
		buf = append(buf, '\n')
		bw.Write(buf)
	}

	return bw.Flush()
}
