package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/erinpentecost/meshbake/internal/mesh"
)

// Write saves m as an OBJ file.
func Write(path string, s *Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mesh: %w", err)
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes the first UV layer, normals, per-vertex colors, material
// and group assignments. Colors are stored per vertex, so seams in the color
// overlay take the value of the last corner written.
func Encode(w io.Writer, s *Scene) error {
	m := s.Mesh
	bw := bufio.NewWriter(w)
	ff := func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

	var colors [][4]float64
	if m.Colors != nil {
		colors = make([][4]float64, len(m.Vertices))
		for i := range colors {
			colors[i] = [4]float64{1, 1, 1, 1}
		}
		for tid, t := range m.Triangles {
			if !m.Colors.IsSetTriangle(tid) {
				continue
			}
			for k, e := range m.Colors.Triangle(tid) {
				colors[t[k]] = m.Colors.Elements[e]
			}
		}
	}
	for i, v := range m.Vertices {
		if colors != nil {
			c := colors[i]
			fmt.Fprintf(bw, "v %s %s %s %s %s %s\n", ff(v[0]), ff(v[1]), ff(v[2]), ff(c[0]), ff(c[1]), ff(c[2]))
			continue
		}
		fmt.Fprintf(bw, "v %s %s %s\n", ff(v[0]), ff(v[1]), ff(v[2]))
	}

	if len(m.UVLayers) > 0 {
		for _, e := range m.UVLayers[0].Elements {
			fmt.Fprintf(bw, "vt %s %s\n", ff(e[0]), ff(e[1]))
		}
	}
	if m.Normals != nil {
		for _, e := range m.Normals.Elements {
			fmt.Fprintf(bw, "vn %s %s %s\n", ff(e[0]), ff(e[1]), ff(e[2]))
		}
	}

	curMaterial, curGroup := -1, -1
	for tid, t := range m.Triangles {
		if m.Groups != nil && m.Groups[tid] != curGroup {
			curGroup = m.Groups[tid]
			fmt.Fprintf(bw, "g %s\n", name(s.Groups, curGroup, "group"))
		}
		if m.MaterialIDs != nil && m.MaterialIDs[tid] != curMaterial {
			curMaterial = m.MaterialIDs[tid]
			fmt.Fprintf(bw, "usemtl %s\n", name(s.Materials, curMaterial, "material"))
		}

		var uvt, nt mesh.Triangle
		hasUV := len(m.UVLayers) > 0 && m.UVLayers[0].IsSetTriangle(tid)
		if hasUV {
			uvt = m.UVLayers[0].Triangle(tid)
		}
		hasN := m.Normals.IsSetTriangle(tid)
		if hasN {
			nt = m.Normals.Triangle(tid)
		}
		var sb strings.Builder
		sb.WriteString("f")
		for k := range 3 {
			sb.WriteString(" ")
			sb.WriteString(strconv.Itoa(t[k] + 1))
			switch {
			case hasUV && hasN:
				fmt.Fprintf(&sb, "/%d/%d", uvt[k]+1, nt[k]+1)
			case hasUV:
				fmt.Fprintf(&sb, "/%d", uvt[k]+1)
			case hasN:
				fmt.Fprintf(&sb, "//%d", nt[k]+1)
			}
		}
		sb.WriteString("\n")
		bw.WriteString(sb.String())
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write mesh: %w", err)
	}
	return nil
}

func name(names []string, id int, prefix string) string {
	if id >= 0 && id < len(names) {
		return names[id]
	}
	return prefix + strconv.Itoa(id)
}
