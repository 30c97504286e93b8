package vox

import (
	"fmt"
	"strconv"
	"strings"
)

// Voxel is one occupied cell of a model in local coordinates. Index addresses
// Scene.Palette directly (file color index minus one).
type Voxel struct {
	X, Y, Z uint32
	Index   uint8
}

type Size struct {
	X, Y, Z uint32
}

type Model struct {
	Size   Size
	Voxels []Voxel
}

// Scene is a decoded .vox file. Palette entries are packed as
// A<<24 | R<<16 | G<<8 | B.
type Scene struct {
	Version uint32
	Models  []Model
	Palette [256]uint32
}

// Model returns the first model. Additional models are ignored by the bridge.
func (s *Scene) Model() Model {
	if s == nil || len(s.Models) == 0 {
		return Model{}
	}
	return s.Models[0]
}

// Color unpacks the palette entry at index.
func (s *Scene) Color(index uint8) RGB {
	return Unpack(s.Palette[index])
}

// ColorKey renders the palette entry at index as "R,G,B", the join key
// against palette.Map.
func (s *Scene) ColorKey(index uint8) string {
	return s.Color(index).String()
}

type RGB struct {
	R, G, B uint8
}

// Unpack reads a packed color: low byte blue, then green, then red. The high
// (alpha) byte is ignored.
func Unpack(c uint32) RGB {
	return RGB{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
	}
}

func Pack(c RGB, alpha uint8) uint32 {
	return uint32(alpha)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c RGB) String() string {
	var b strings.Builder
	b.Grow(11)
	b.WriteString(strconv.Itoa(int(c.R)))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(int(c.G)))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(int(c.B)))
	return b.String()
}

// ParseRGB accepts only the canonical form produced by RGB.String.
func ParseRGB(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("color %q: want R,G,B", s)
	}
	var out [3]uint8
	for i, p := range parts {
		if p == "" || (len(p) > 1 && p[0] == '0') || p[0] == '+' || p[0] == '-' {
			return RGB{}, fmt.Errorf("color %q: component %d not canonical", s, i)
		}
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("color %q: %w", s, err)
		}
		out[i] = uint8(v)
	}
	return RGB{R: out[0], G: out[1], B: out[2]}, nil
}
