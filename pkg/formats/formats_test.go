package formats

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshmerge/pkg/mesh"
)

func testTriangle() *mesh.Mesh {
	up := mgl64.Vec3{0, 0, 1}
	return &mesh.Mesh{
		Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   []mgl64.Vec3{up, up, up},
		Faces:     []mesh.Face{{0, 1, 2}},
	}
}

func vecNear(a, b mgl64.Vec3, eps float64) bool {
	return math.Abs(a[0]-b[0]) <= eps && math.Abs(a[1]-b[1]) <= eps && math.Abs(a[2]-b[2]) <= eps
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"ground.obj", FormatOBJ, false},
		{"models/Tree.OBJ", FormatOBJ, false},
		{"scene.gltf", FormatGLTF, false},
		{"scene.glb", FormatGLB, false},
		{"scene.fbx", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		got, err := FormatOf(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("FormatOf(%q) error = %v, want ErrUnsupportedFormat", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("FormatOf(%q) unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("FormatOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
		if !Supported(tt.name) {
			t.Errorf("Supported(%q) = false", tt.name)
		}
	}
}

func TestEncodeUnsupported(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, "out.stl", testTriangle())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestEncodeOBJ(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeOBJ(&buf, testTriangle()); err != nil {
		t.Fatalf("EncodeOBJ failed: %v", err)
	}

	want := "# meshmerge: 3 vertices, 1 faces\n" +
		"v 0 0 0\n" +
		"v 1 0 0\n" +
		"v 0 1 0\n" +
		"vn 0 0 1\n" +
		"vn 0 0 1\n" +
		"vn 0 0 1\n" +
		"f 1//1 2//2 3//3\n"
	if buf.String() != want {
		t.Errorf("unexpected OBJ output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestEncodeOBJRejectsBadMesh(t *testing.T) {
	m := testTriangle()
	m.Faces = append(m.Faces, mesh.Face{0, 1, 7})

	var buf bytes.Buffer
	if err := EncodeOBJ(&buf, m); !errors.Is(err, mesh.ErrFaceIndex) {
		t.Errorf("expected ErrFaceIndex, got %v", err)
	}
}

func TestDecodeOBJNormals(t *testing.T) {
	src := `# test
o tri
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
vn 1 0 0
f 1//1 2//1 3//1
f 1//2 3//2 2//2
`
	m, err := DecodeOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeOBJ failed: %v", err)
	}

	if m.VertexCount() != 3 {
		t.Fatalf("expected 3 vertices, got %d", m.VertexCount())
	}
	if len(m.Faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(m.Faces))
	}
	// First reference wins.
	for i, n := range m.Normals {
		if n != (mgl64.Vec3{0, 0, 1}) {
			t.Errorf("normal %d = %v, want (0,0,1)", i, n)
		}
	}
	if m.Faces[1] != (mesh.Face{0, 2, 1}) {
		t.Errorf("second face = %v, want [0 2 1]", m.Faces[1])
	}
}

func TestDecodeOBJComputesMissingNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	m, err := DecodeOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeOBJ failed: %v", err)
	}

	for i, n := range m.Normals {
		if !vecNear(n, mgl64.Vec3{0, 0, 1}, 1e-12) {
			t.Errorf("normal %d = %v, want (0,0,1)", i, n)
		}
	}
}

func TestDecodeOBJPolygonFan(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
f 1/1 2/1 3/1 4/1
`
	m, err := DecodeOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeOBJ failed: %v", err)
	}

	want := []mesh.Face{{0, 1, 2}, {0, 2, 3}}
	if len(m.Faces) != len(want) {
		t.Fatalf("expected %d faces, got %d", len(want), len(m.Faces))
	}
	for i := range want {
		if m.Faces[i] != want[i] {
			t.Errorf("face %d = %v, want %v", i, m.Faces[i], want[i])
		}
	}
}

func TestDecodeOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf -3//-1 -2//-1 -1//-1\n"
	m, err := DecodeOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeOBJ failed: %v", err)
	}

	if m.Faces[0] != (mesh.Face{0, 1, 2}) {
		t.Errorf("face = %v, want [0 1 2]", m.Faces[0])
	}
}

func TestDecodeOBJKeepsOutOfRangeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 99\n"
	m, err := DecodeOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeOBJ failed: %v", err)
	}

	if m.Faces[0] != (mesh.Face{0, 1, 98}) {
		t.Errorf("face = %v, want [0 1 98]", m.Faces[0])
	}
	if err := m.Validate(-1); !errors.Is(err, mesh.ErrFaceIndex) {
		t.Errorf("Validate error = %v, want ErrFaceIndex", err)
	}
}

func TestDecodeOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"short vertex", "v 0 0\n", "line 1"},
		{"bad float", "v 0 0 0\nv 1 x 0\n", "line 2"},
		{"nan", "v NaN 0 0\n", "line 1"},
		{"inf", "v 0 +Inf 0\n", "line 1"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", "line 4"},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n", "line 3"},
		{"bad index", "v 0 0 0\nf a b c\n", "line 2"},
		{"bad corner", "v 0 0 0\nf 1/1/1/1 1 1\n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOBJ(strings.NewReader(tt.src))
			if !errors.Is(err, ErrMalformedOBJ) {
				t.Fatalf("expected ErrMalformedOBJ, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q does not mention %s", err, tt.line)
			}
		})
	}
}

func TestDecodeOBJEmpty(t *testing.T) {
	m, err := DecodeOBJ(strings.NewReader("# nothing here\n\n"))
	if err != nil {
		t.Fatalf("DecodeOBJ failed: %v", err)
	}
	if !m.Empty() {
		t.Errorf("expected empty mesh, got %d vertices", m.VertexCount())
	}
}

func TestOBJRoundTrip(t *testing.T) {
	m := testTriangle()
	m.Positions[1] = mgl64.Vec3{0.1, -2.5e-7, 123456.789}

	var buf bytes.Buffer
	if err := Encode(&buf, "merged.obj", m); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode("merged.obj", buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for i := range m.Positions {
		if got.Positions[i] != m.Positions[i] {
			t.Errorf("position %d = %v, want %v", i, got.Positions[i], m.Positions[i])
		}
		if got.Normals[i] != m.Normals[i] {
			t.Errorf("normal %d = %v, want %v", i, got.Normals[i], m.Normals[i])
		}
	}
	if got.Faces[0] != m.Faces[0] {
		t.Errorf("face = %v, want %v", got.Faces[0], m.Faces[0])
	}
}

func TestGLTFRoundTrip(t *testing.T) {
	m := testTriangle()
	m.Positions = append(m.Positions, mgl64.Vec3{1, 1, 0})
	m.Normals = append(m.Normals, mgl64.Vec3{0, 0, 1})
	m.Faces = append(m.Faces, mesh.Face{1, 3, 2})

	for _, name := range []string{"merged.glb", "merged.gltf"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, name, m); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := Decode(name, buf.Bytes())
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if got.VertexCount() != m.VertexCount() {
				t.Fatalf("expected %d vertices, got %d", m.VertexCount(), got.VertexCount())
			}
			for i := range m.Positions {
				if !vecNear(got.Positions[i], m.Positions[i], 1e-6) {
					t.Errorf("position %d = %v, want %v", i, got.Positions[i], m.Positions[i])
				}
				if !vecNear(got.Normals[i], m.Normals[i], 1e-6) {
					t.Errorf("normal %d = %v, want %v", i, got.Normals[i], m.Normals[i])
				}
			}
			if len(got.Faces) != 2 || got.Faces[1] != (mesh.Face{1, 3, 2}) {
				t.Errorf("faces = %v", got.Faces)
			}
		})
	}
}

func TestGLTFEmptyMesh(t *testing.T) {
	empty := &mesh.Mesh{}

	var buf bytes.Buffer
	if err := EncodeGLTF(&buf, empty, false); err != nil {
		t.Fatalf("EncodeGLTF failed: %v", err)
	}
	got, err := DecodeGLTF(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeGLTF failed: %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected empty mesh, got %d vertices", got.VertexCount())
	}
}

func TestDecodeGLTFMalformed(t *testing.T) {
	_, err := DecodeGLTF([]byte("{not json"))
	if !errors.Is(err, ErrMalformedGLTF) {
		t.Errorf("expected ErrMalformedGLTF, got %v", err)
	}
}
