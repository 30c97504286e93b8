package vox

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const magic = "VOX "

// Chunk ids the decoder interprets. Everything else (nTRN, nGRP, nSHP, MATL,
// LAYR, rOBJ, rCAM, NOTE, IMAP, ...) is skipped.
const (
	chunkMain = "MAIN"
	chunkPack = "PACK"
	chunkSize = "SIZE"
	chunkXYZI = "XYZI"
	chunkRGBA = "RGBA"
)

// DecodeError reports a voxel source that is missing, malformed, or empty.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("vox: %v", e.Err)
	}
	return fmt.Sprintf("vox %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	ErrBadMagic  = errors.New("not a vox file")
	ErrTruncated = errors.New("truncated chunk")
	ErrNoModels  = errors.New("scene contains no models")
)

func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	s, err := Decode(bufio.NewReader(f))
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
			return nil, de
		}
		return nil, &DecodeError{Path: path, Err: err}
	}
	return s, nil
}

func Decode(r io.Reader) (*Scene, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(raw) < 8 || string(raw[:4]) != magic {
		return nil, &DecodeError{Err: ErrBadMagic}
	}

	s := &Scene{
		Version: binary.LittleEndian.Uint32(raw[4:8]),
		Palette: defaultPalette(),
	}

	c := cursor{buf: raw[8:]}
	main, err := c.next()
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if main.id != chunkMain {
		return nil, &DecodeError{Err: fmt.Errorf("first chunk %q, want %s", main.id, chunkMain)}
	}
	if err := s.readChildren(main.children); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(s.Models) == 0 {
		return nil, &DecodeError{Err: ErrNoModels}
	}
	return s, nil
}

func (s *Scene) readChildren(buf []byte) error {
	c := cursor{buf: buf}
	var pending *Size
	for !c.done() {
		ch, err := c.next()
		if err != nil {
			return err
		}
		switch ch.id {
		case chunkPack:
			// Model count hint; SIZE/XYZI pairs are authoritative.
		case chunkSize:
			sz, err := readSize(ch.content)
			if err != nil {
				return err
			}
			pending = &sz
		case chunkXYZI:
			if pending == nil {
				return fmt.Errorf("%s chunk without preceding %s", chunkXYZI, chunkSize)
			}
			voxels, err := readVoxels(ch.content, *pending)
			if err != nil {
				return err
			}
			s.Models = append(s.Models, Model{Size: *pending, Voxels: voxels})
			pending = nil
		case chunkRGBA:
			if len(ch.content) < 256*4 {
				return fmt.Errorf("%s: %w", chunkRGBA, ErrTruncated)
			}
			for i := 0; i < 256; i++ {
				p := ch.content[i*4:]
				s.Palette[i] = Pack(RGB{R: p[0], G: p[1], B: p[2]}, p[3])
			}
		}
	}
	return nil
}

func readSize(b []byte) (Size, error) {
	if len(b) < 12 {
		return Size{}, fmt.Errorf("%s: %w", chunkSize, ErrTruncated)
	}
	x := int32(binary.LittleEndian.Uint32(b[0:]))
	y := int32(binary.LittleEndian.Uint32(b[4:]))
	z := int32(binary.LittleEndian.Uint32(b[8:]))
	if x < 0 || y < 0 || z < 0 {
		return Size{}, fmt.Errorf("%s: negative dimension %d,%d,%d", chunkSize, x, y, z)
	}
	return Size{X: uint32(x), Y: uint32(y), Z: uint32(z)}, nil
}

func readVoxels(b []byte, sz Size) ([]Voxel, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%s: %w", chunkXYZI, ErrTruncated)
	}
	n := binary.LittleEndian.Uint32(b)
	b = b[4:]
	if uint64(len(b)) < uint64(n)*4 {
		return nil, fmt.Errorf("%s: %d voxels declared: %w", chunkXYZI, n, ErrTruncated)
	}
	out := make([]Voxel, 0, n)
	for i := uint32(0); i < n; i++ {
		p := b[i*4:]
		v := Voxel{X: uint32(p[0]), Y: uint32(p[1]), Z: uint32(p[2])}
		if v.X >= sz.X || v.Y >= sz.Y || v.Z >= sz.Z {
			return nil, fmt.Errorf("%s: voxel %d at %d,%d,%d outside size %d,%d,%d", chunkXYZI, i, v.X, v.Y, v.Z, sz.X, sz.Y, sz.Z)
		}
		if p[3] == 0 {
			return nil, fmt.Errorf("%s: voxel %d uses reserved color index 0", chunkXYZI, i)
		}
		v.Index = p[3] - 1
		out = append(out, v)
	}
	return out, nil
}

type chunk struct {
	id       string
	content  []byte
	children []byte
}

type cursor struct {
	buf []byte
	off int
}

func (c *cursor) done() bool { return c.off >= len(c.buf) }

func (c *cursor) next() (chunk, error) {
	if len(c.buf)-c.off < 12 {
		return chunk{}, ErrTruncated
	}
	h := c.buf[c.off:]
	id := string(h[:4])
	contentLen := int64(binary.LittleEndian.Uint32(h[4:]))
	childrenLen := int64(binary.LittleEndian.Uint32(h[8:]))
	start := int64(c.off) + 12
	mid := start + contentLen
	end := mid + childrenLen
	if end > int64(len(c.buf)) {
		return chunk{}, fmt.Errorf("%s: %w", id, ErrTruncated)
	}
	c.off = int(end)
	return chunk{id: id, content: c.buf[start:mid], children: c.buf[mid:end]}, nil
}
