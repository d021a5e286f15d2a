package bake

// layout is the offset table of every evaluator's data inside one flat
// per-sample float buffer.
type layout struct {
	offsets []int
	widths  []int
	stride  int
}

func newLayout(descs []Descriptor) layout {
	l := layout{
		offsets: make([]int, len(descs)),
		widths:  make([]int, len(descs)),
	}
	for i, d := range descs {
		l.offsets[i] = l.stride
		l.widths[i] = d.Width()
		l.stride += l.widths[i]
	}
	return l
}

// slice returns evaluator e's part of the record starting at buf[0].
func (l layout) slice(buf []float64, e int) []float64 {
	return buf[l.offsets[e] : l.offsets[e]+l.widths[e]]
}

// record returns record i of a buffer holding consecutive records.
func (l layout) record(buf []float64, i int) []float64 {
	return buf[i*l.stride : (i+1)*l.stride]
}
