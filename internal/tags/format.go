package tags

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Record layout, all integers little-endian:
//
//	int32 groupCount
//	groupCount * { string name; int32 tagCount; tagCount * tag }
//	tag = { string name; string pretty; string description; color bg; color text }
//	string = int32 length, UTF-8 bytes
//	color = 4 * float32 (r, g, b, a)
const (
	maxRecordCount  = 1 << 16
	maxStringLength = 1 << 20
)

// ErrCorrupt is returned when a tag store cannot be decoded.
var ErrCorrupt = errors.New("tags: corrupt tag store")

type recordWriter struct {
	w   *bufio.Writer
	err error
}

func (rw *recordWriter) int32(v int32) {
	if rw.err == nil {
		rw.err = binary.Write(rw.w, binary.LittleEndian, v)
	}
}

func (rw *recordWriter) string(s string) {
	rw.int32(int32(len(s)))
	if rw.err == nil {
		_, rw.err = rw.w.WriteString(s)
	}
}

func (rw *recordWriter) color(c Color) {
	for _, f := range [4]float32{c.R, c.G, c.B, c.A} {
		if rw.err == nil {
			rw.err = binary.Write(rw.w, binary.LittleEndian, math.Float32bits(f))
		}
	}
}

// writeGroups encodes groups in the given order.
func writeGroups(w io.Writer, groups []Group) error {
	rw := &recordWriter{w: bufio.NewWriter(w)}
	rw.int32(int32(len(groups)))
	for _, g := range groups {
		rw.string(g.Name)
		rw.int32(int32(len(g.Tags)))
		for _, t := range g.Tags {
			rw.string(t.Name)
			rw.string(t.PrettyName)
			rw.string(t.Description)
			rw.color(t.Background)
			rw.color(t.Text)
		}
	}
	if rw.err != nil {
		return rw.err
	}
	return rw.w.Flush()
}

type recordReader struct {
	r   *bufio.Reader
	err error
}

func (rr *recordReader) int32() int32 {
	var v int32
	if rr.err == nil {
		rr.err = binary.Read(rr.r, binary.LittleEndian, &v)
	}
	return v
}

func (rr *recordReader) count() int {
	n := rr.int32()
	if rr.err == nil && (n < 0 || n > maxRecordCount) {
		rr.err = fmt.Errorf("%w: count %d out of range", ErrCorrupt, n)
	}
	return int(n)
}

func (rr *recordReader) string() string {
	n := rr.int32()
	if rr.err != nil {
		return ""
	}
	if n < 0 || n > maxStringLength {
		rr.err = fmt.Errorf("%w: string length %d out of range", ErrCorrupt, n)
		return ""
	}
	buf := make([]byte, n)
	_, rr.err = io.ReadFull(rr.r, buf)
	return string(buf)
}

func (rr *recordReader) color() Color {
	var bits [4]uint32
	if rr.err == nil {
		rr.err = binary.Read(rr.r, binary.LittleEndian, &bits)
	}
	return Color{
		R: math.Float32frombits(bits[0]),
		G: math.Float32frombits(bits[1]),
		B: math.Float32frombits(bits[2]),
		A: math.Float32frombits(bits[3]),
	}
}

// readGroups decodes a record. Groups repeating a name are merged; the
// caller is responsible for discarding duplicate tag names.
func readGroups(r io.Reader) ([]Group, error) {
	rr := &recordReader{r: bufio.NewReader(r)}
	groupCount := rr.count()
	var groups []Group
	for i := 0; i < groupCount && rr.err == nil; i++ {
		g := Group{Name: rr.string()}
		tagCount := rr.count()
		for j := 0; j < tagCount && rr.err == nil; j++ {
			t := Tag{
				Name:        rr.string(),
				PrettyName:  rr.string(),
				Description: rr.string(),
			}
			t.Background = rr.color()
			t.Text = rr.color()
			g.Tags = append(g.Tags, t)
		}
		groups = append(groups, g)
	}
	if rr.err != nil {
		if errors.Is(rr.err, ErrCorrupt) {
			return nil, rr.err
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, rr.err)
	}
	return groups, nil
}
