package terrain

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShortData is returned when a corner stream ends mid-record.
var ErrShortData = errors.New("corner data truncated")

// Persisted corner layout, little-endian:
//
//	u16 height
//	u8  count
//	count x (u8 terrain type, u8 weight)

// WriteCorner appends one corner in persisted form.
func WriteCorner(w io.Writer, c Corner) error {
	if len(c.Weights) > 255 {
		return fmt.Errorf("corner has %d terrain types, at most 255 fit", len(c.Weights))
	}
	buf := make([]byte, 3+2*len(c.Weights))
	binary.LittleEndian.PutUint16(buf, c.Height)
	buf[2] = uint8(len(c.Weights))
	for i, tw := range c.Weights {
		buf[3+2*i] = tw.Type
		buf[4+2*i] = tw.Weight
	}
	_, err := w.Write(buf)
	return err
}

// ReadCorner reads one persisted corner. Zero weights found in the stream
// are dropped so the sparse invariant holds for whatever was written.
func ReadCorner(r io.Reader) (Corner, error) {
	var head [3]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Corner{}, shortData(err)
	}
	c := Corner{Height: binary.LittleEndian.Uint16(head[:2])}
	n := int(head[2])
	if n == 0 {
		return c, nil
	}
	pairs := make([]byte, 2*n)
	if _, err := io.ReadFull(r, pairs); err != nil {
		return Corner{}, shortData(err)
	}
	c.Weights = make([]TerrainWeight, 0, n)
	for i := 0; i < n; i++ {
		c.SetWeightByte(pairs[2*i], pairs[2*i+1])
	}
	return c, nil
}

// EncodeCorners writes a whole corner grid.
func EncodeCorners(w io.Writer, corners []Corner) error {
	bw := bufio.NewWriter(w)
	for i := range corners {
		if err := WriteCorner(bw, corners[i]); err != nil {
			return fmt.Errorf("corner %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// DecodeCorners reads exactly count corners.
func DecodeCorners(r io.Reader, count int) ([]Corner, error) {
	br := bufio.NewReader(r)
	out := make([]Corner, count)
	for i := range out {
		c, err := ReadCorner(br)
		if err != nil {
			return nil, fmt.Errorf("corner %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func shortData(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortData
	}
	return err
}
