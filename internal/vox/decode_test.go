package vox_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"voxbridge/internal/vox"
	"voxbridge/internal/vox/voxtest"
)

func TestDecode_FirstModelAndPalette(t *testing.T) {
	in := voxtest.TwoVoxelScene()
	in.Models = append(in.Models, vox.Model{
		Size:   vox.Size{X: 1, Y: 1, Z: 1},
		Voxels: []vox.Voxel{{Index: 9}},
	})

	s, err := vox.Decode(bytes.NewReader(voxtest.Encode(in, true)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Version != 150 {
		t.Fatalf("version=%d want 150", s.Version)
	}
	if len(s.Models) != 2 {
		t.Fatalf("models=%d want 2", len(s.Models))
	}
	m := s.Model()
	if m.Size != (vox.Size{X: 2, Y: 2, Z: 2}) {
		t.Fatalf("size=%+v", m.Size)
	}
	want := []vox.Voxel{{X: 0, Y: 0, Z: 0, Index: 0}, {X: 1, Y: 1, Z: 1, Index: 1}}
	if len(m.Voxels) != len(want) {
		t.Fatalf("voxels=%d want %d", len(m.Voxels), len(want))
	}
	for i := range want {
		if m.Voxels[i] != want[i] {
			t.Fatalf("voxel[%d]=%+v want %+v", i, m.Voxels[i], want[i])
		}
	}
	if got := s.ColorKey(0); got != "128,128,128" {
		t.Fatalf("ColorKey(0)=%q", got)
	}
	if got := s.ColorKey(1); got != "134,96,67" {
		t.Fatalf("ColorKey(1)=%q", got)
	}
}

func TestDecode_DefaultPaletteWithoutRGBA(t *testing.T) {
	s, err := vox.Decode(bytes.NewReader(voxtest.Encode(voxtest.TwoVoxelScene(), false)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// Color index 1 of the built-in palette is white.
	if got := s.ColorKey(0); got != "255,255,255" {
		t.Fatalf("default ColorKey(0)=%q want 255,255,255", got)
	}
	if got := s.ColorKey(1); got != "255,255,204" {
		t.Fatalf("default ColorKey(1)=%q want 255,255,204", got)
	}
}

func TestDecode_SkipsUnknownChunks(t *testing.T) {
	raw := voxtest.Encode(voxtest.TwoVoxelScene(), true)
	// Append an nTRN chunk to MAIN's children and patch the children length.
	extra := []byte{'n', 'T', 'R', 'N', 4, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4}
	raw = append(raw, extra...)
	childLen := uint32(raw[16]) | uint32(raw[17])<<8 | uint32(raw[18])<<16 | uint32(raw[19])<<24
	childLen += uint32(len(extra))
	raw[16], raw[17], raw[18], raw[19] = byte(childLen), byte(childLen>>8), byte(childLen>>16), byte(childLen>>24)

	s, err := vox.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Model().Voxels) != 2 {
		t.Fatalf("voxels=%d want 2", len(s.Model().Voxels))
	}
}

func TestDecode_Errors(t *testing.T) {
	good := voxtest.Encode(voxtest.TwoVoxelScene(), true)

	outside := voxtest.TwoVoxelScene()
	outside.Models[0].Voxels[1].X = 5

	cases := map[string][]byte{
		"empty":     nil,
		"bad magic": append([]byte("VOXX"), good[4:]...),
		"truncated": good[:len(good)-10],
		"no models": voxtest.Encode(&vox.Scene{}, true),
		"outside":   voxtest.Encode(outside, true),
	}
	for name, raw := range cases {
		_, err := vox.Decode(bytes.NewReader(raw))
		var de *vox.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("%s: err=%v want DecodeError", name, err)
		}
	}

	_, err := vox.Decode(bytes.NewReader(voxtest.Encode(&vox.Scene{}, true)))
	if !errors.Is(err, vox.ErrNoModels) {
		t.Fatalf("err=%v want ErrNoModels", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castle.vox")
	_, err := vox.Load(path)
	var de *vox.DecodeError
	if !errors.As(err, &de) || de.Path != path || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v want DecodeError for %s", err, path)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vox", "castle.vox")
	voxtest.WriteFile(t, path, voxtest.TwoVoxelScene())
	s, err := vox.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Model().Voxels) != 2 {
		t.Fatalf("voxels=%d", len(s.Model().Voxels))
	}
}
