package transform

import (
	"testing"

	"voxbridge/internal/vox"
)

func TestParseDirection_PermissiveDefault(t *testing.T) {
	cases := []struct {
		in   string
		want Direction
	}{
		{in: "n", want: North},
		{in: "s", want: South},
		{in: "e", want: East},
		{in: "w", want: West},
		{in: " e", want: East},
		{in: "  w ", want: West},
		{in: "", want: North},
		{in: "   ", want: North},
		{in: "x", want: North},
		{in: "east", want: North},
		{in: "E", want: North},
	}
	for _, c := range cases {
		if got := ParseDirection(c.in); got != c.want {
			t.Fatalf("ParseDirection(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestApply_DirectionTable(t *testing.T) {
	size := vox.Size{X: 5, Y: 7, Z: 3}
	v := vox.Voxel{X: 1, Y: 2, Z: 3}
	base := Vec{X: 100, Y: 64, Z: 200}

	cases := []struct {
		d    Direction
		want Vec
	}{
		// base.x+ly, base.y+lz, base.z+lx
		{d: North, want: Vec{X: 102, Y: 67, Z: 201}},
		// base.x+lx, base.y+lz, base.z+(ex-ly)
		{d: West, want: Vec{X: 101, Y: 67, Z: 203}},
		// base.x+(ey-lx), base.y+lz, base.z+ly
		{d: East, want: Vec{X: 106, Y: 67, Z: 202}},
		// base.x+(ey-ly), base.y+lz, base.z+(ex-lx)
		{d: South, want: Vec{X: 105, Y: 67, Z: 204}},
		{d: ParseDirection(""), want: Vec{X: 102, Y: 67, Z: 201}},
		{d: ParseDirection("q"), want: Vec{X: 102, Y: 67, Z: 201}},
	}
	for _, c := range cases {
		if got := Apply(v, size, c.d, base); got != c.want {
			t.Fatalf("Apply(%v)=%v want %v", c.d, got, c.want)
		}
	}
}

func TestOffset_NoWrapWhenLocalExceedsExtent(t *testing.T) {
	// ey-lx with lx > ey goes negative instead of wrapping.
	size := vox.Size{X: 10, Y: 2, Z: 1}
	v := vox.Voxel{X: 6, Y: 0, Z: 0}
	got := Apply(v, size, East, Vec{X: 100})
	if got.X != 96 {
		t.Fatalf("East X=%d want 96", got.X)
	}
	got = Apply(v, size, East, Vec{})
	if got.X != -4 {
		t.Fatalf("East X=%d want -4", got.X)
	}
}
