// Package meshio reads and writes Wavefront OBJ meshes.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// Scene is a parsed OBJ file. Material and group ids on the mesh index into
// the name lists.
type Scene struct {
	Mesh      *mesh.Mesh
	Materials []string
	Groups    []string
}

type corner struct {
	v, vt, vn int
}

type face struct {
	corners  [3]corner
	material int
	group    int
}

type objReader struct {
	name string

	vertices []mgl64.Vec3
	colors   []mgl64.Vec4
	hasColor bool
	uvs      []mgl64.Vec2
	normals  []mgl64.Vec3
	faces    []face

	materials   []string
	materialIDs map[string]int
	groups      []string
	groupIDs    map[string]int
	curMaterial int
	curGroup    int
}

// Read loads an OBJ file.
func Read(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mesh: %w", err)
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode parses OBJ text. Polygons are fan triangulated. name is only used
// in error messages.
func Decode(r io.Reader, name string) (*Scene, error) {
	or := &objReader{
		name:        name,
		materialIDs: map[string]int{},
		groupIDs:    map[string]int{},
	}
	if err := or.parse(r); err != nil {
		return nil, err
	}
	return or.build(), nil
}

func (r *objReader) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("[%s: %d] %s", r.name, line, fmt.Sprintf(format, args...))
}

func (r *objReader) parse(in io.Reader) error {
	lineNum := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		switch tokens[0] {
		case "v":
			if len(tokens) != 4 && len(tokens) != 7 {
				return r.errorf(lineNum, "expected 3 or 6 arguments for 'v'; got %d", len(tokens)-1)
			}
			f, err := parseFloats(tokens[1:])
			if err != nil {
				return r.errorf(lineNum, "%v", err)
			}
			r.vertices = append(r.vertices, mgl64.Vec3{f[0], f[1], f[2]})
			c := mgl64.Vec4{1, 1, 1, 1}
			if len(f) == 6 {
				c = mgl64.Vec4{f[3], f[4], f[5], 1}
				r.hasColor = true
			}
			r.colors = append(r.colors, c)
		case "vt":
			if len(tokens) < 3 {
				return r.errorf(lineNum, "expected at least 2 arguments for 'vt'; got %d", len(tokens)-1)
			}
			f, err := parseFloats(tokens[1:3])
			if err != nil {
				return r.errorf(lineNum, "%v", err)
			}
			r.uvs = append(r.uvs, mgl64.Vec2{f[0], f[1]})
		case "vn":
			if len(tokens) != 4 {
				return r.errorf(lineNum, "expected 3 arguments for 'vn'; got %d", len(tokens)-1)
			}
			f, err := parseFloats(tokens[1:])
			if err != nil {
				return r.errorf(lineNum, "%v", err)
			}
			r.normals = append(r.normals, mgl64.Vec3{f[0], f[1], f[2]})
		case "usemtl":
			if len(tokens) != 2 {
				return r.errorf(lineNum, "expected 1 argument for 'usemtl'; got %d", len(tokens)-1)
			}
			r.curMaterial = intern(tokens[1], &r.materials, r.materialIDs)
		case "g", "o":
			if len(tokens) < 2 {
				return r.errorf(lineNum, "expected a name for '%s'", tokens[0])
			}
			r.curGroup = intern(tokens[1], &r.groups, r.groupIDs)
		case "f":
			if err := r.parseFace(tokens[1:]); err != nil {
				return r.errorf(lineNum, "%v", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", r.name, err)
	}
	return nil
}

func intern(name string, names *[]string, ids map[string]int) int {
	if id, ok := ids[name]; ok {
		return id
	}
	*names = append(*names, name)
	ids[name] = len(*names) - 1
	return ids[name]
}

// parseFace accepts v, v/vt, v//vn and v/vt/vn corners. Indices start at 1
// and negative values count back from the end of the list.
func (r *objReader) parseFace(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("expected at least 3 face corners; got %d", len(args))
	}
	corners := make([]corner, len(args))
	for i, arg := range args {
		parts := strings.Split(arg, "/")
		if parts[0] == "" || len(parts) > 3 {
			return fmt.Errorf("malformed face corner %q", arg)
		}
		c := corner{v: -1, vt: -1, vn: -1}
		var err error
		if c.v, err = resolveIndex(parts[0], len(r.vertices)); err != nil {
			return fmt.Errorf("vertex of corner %d: %w", i, err)
		}
		if len(parts) > 1 && parts[1] != "" {
			if c.vt, err = resolveIndex(parts[1], len(r.uvs)); err != nil {
				return fmt.Errorf("tex coord of corner %d: %w", i, err)
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if c.vn, err = resolveIndex(parts[2], len(r.normals)); err != nil {
				return fmt.Errorf("normal of corner %d: %w", i, err)
			}
		}
		corners[i] = c
	}
	for i := 1; i+1 < len(corners); i++ {
		r.faces = append(r.faces, face{
			corners:  [3]corner{corners[0], corners[i], corners[i+1]},
			material: r.curMaterial,
			group:    r.curGroup,
		})
	}
	return nil
}

func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return 0, fmt.Errorf("index 0 is invalid")
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s out of range [1, %d]", s, n)
	}
	return i, nil
}

func parseFloats(tokens []string) ([]float64, error) {
	out := make([]float64, len(tokens))
	for i, t := range tokens {
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", t, err)
		}
		out[i] = f
	}
	return out, nil
}

func (r *objReader) build() *Scene {
	m := mesh.New()
	m.Vertices = r.vertices

	var uv *mesh.Overlay[mgl64.Vec2]
	if len(r.uvs) > 0 {
		uv = m.AddUVLayer()
		uv.Elements = r.uvs
	}
	if len(r.normals) > 0 {
		m.EnableNormals().Elements = r.normals
	}
	if r.hasColor {
		m.EnableColors().Elements = r.colors
	}
	if len(r.materials) > 0 {
		m.EnableMaterialIDs()
	}
	if len(r.groups) > 0 {
		m.EnableGroups()
	}

	for _, f := range r.faces {
		c := f.corners
		tid := m.AppendTriangle(c[0].v, c[1].v, c[2].v)
		if uv != nil && c[0].vt >= 0 && c[1].vt >= 0 && c[2].vt >= 0 {
			uv.SetTriangle(tid, mesh.Triangle{c[0].vt, c[1].vt, c[2].vt})
		}
		if m.Normals != nil && c[0].vn >= 0 && c[1].vn >= 0 && c[2].vn >= 0 {
			m.Normals.SetTriangle(tid, mesh.Triangle{c[0].vn, c[1].vn, c[2].vn})
		}
		if m.Colors != nil {
			m.Colors.SetTriangle(tid, mesh.Triangle{c[0].v, c[1].v, c[2].v})
		}
		if m.MaterialIDs != nil {
			m.MaterialIDs[tid] = f.material
		}
		if m.Groups != nil {
			m.Groups[tid] = f.group
		}
	}
	return &Scene{Mesh: m, Materials: r.materials, Groups: r.groups}
}
