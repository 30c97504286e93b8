package voxtest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"voxbridge/internal/vox"
)

// Encode writes scene as a version 150 .vox file. The RGBA chunk is emitted
// only when withPalette is set, so callers can exercise the default palette.
func Encode(s *vox.Scene, withPalette bool) []byte {
	var children bytes.Buffer

	var pack [4]byte
	binary.LittleEndian.PutUint32(pack[:], uint32(len(s.Models)))
	writeChunk(&children, "PACK", pack[:], nil)

	for _, m := range s.Models {
		var size [12]byte
		binary.LittleEndian.PutUint32(size[0:], m.Size.X)
		binary.LittleEndian.PutUint32(size[4:], m.Size.Y)
		binary.LittleEndian.PutUint32(size[8:], m.Size.Z)
		writeChunk(&children, "SIZE", size[:], nil)

		xyzi := make([]byte, 4+4*len(m.Voxels))
		binary.LittleEndian.PutUint32(xyzi, uint32(len(m.Voxels)))
		for i, v := range m.Voxels {
			p := xyzi[4+i*4:]
			p[0], p[1], p[2], p[3] = byte(v.X), byte(v.Y), byte(v.Z), v.Index+1
		}
		writeChunk(&children, "XYZI", xyzi, nil)
	}

	if withPalette {
		rgba := make([]byte, 256*4)
		for i, c := range s.Palette {
			p := rgba[i*4:]
			p[0], p[1], p[2], p[3] = byte(c>>16), byte(c>>8), byte(c), byte(c>>24)
		}
		writeChunk(&children, "RGBA", rgba, nil)
	}

	var out bytes.Buffer
	out.WriteString("VOX ")
	_ = binary.Write(&out, binary.LittleEndian, uint32(150))
	writeChunk(&out, "MAIN", nil, children.Bytes())
	return out.Bytes()
}

func writeChunk(w *bytes.Buffer, id string, content, children []byte) {
	w.WriteString(id)
	_ = binary.Write(w, binary.LittleEndian, uint32(len(content)))
	_ = binary.Write(w, binary.LittleEndian, uint32(len(children)))
	w.Write(content)
	w.Write(children)
}

// WriteFile encodes scene with its palette to path, creating parent dirs.
func WriteFile(t *testing.T, path string, s *vox.Scene) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, Encode(s, true), 0o644); err != nil {
		t.Fatalf("write vox: %v", err)
	}
}

// TwoVoxelScene is the 2x2x2 fixture with voxels at (0,0,0) index 0 and
// (1,1,1) index 1.
func TwoVoxelScene() *vox.Scene {
	s := &vox.Scene{
		Models: []vox.Model{{
			Size: vox.Size{X: 2, Y: 2, Z: 2},
			Voxels: []vox.Voxel{
				{X: 0, Y: 0, Z: 0, Index: 0},
				{X: 1, Y: 1, Z: 1, Index: 1},
			},
		}},
	}
	s.Palette[0] = vox.Pack(vox.RGB{R: 128, G: 128, B: 128}, 0xff)
	s.Palette[1] = vox.Pack(vox.RGB{R: 134, G: 96, B: 67}, 0xff)
	return s
}
