package transform

import (
	"fmt"
	"strings"

	"voxbridge/internal/vox"
)

// Direction is the facing a model is built toward. The zero value is North.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

func (d Direction) String() string {
	switch d {
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	default:
		return "north"
	}
}

// ParseDirection maps a trailing chat token to a Direction. Empty and
// unrecognized tokens are North; this never fails.
func ParseDirection(token string) Direction {
	switch strings.TrimSpace(token) {
	case "s":
		return South
	case "e":
		return East
	case "w":
		return West
	case "n", "":
		return North
	default:
		return North
	}
}

// Vec is a world-space block position. Components are signed so that the
// East/South branches never wrap when a local coordinate exceeds the extent.
type Vec struct {
	X, Y, Z int
}

func (v Vec) String() string { return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z) }

// Offset maps a local voxel position to a world offset from the base. The
// model's z axis is height; x and y are swapped or mirrored per direction.
func Offset(v vox.Voxel, size vox.Size, d Direction) Vec {
	lx, ly, lz := int(v.X), int(v.Y), int(v.Z)
	ex, ey := int(size.X), int(size.Y)
	switch d {
	case West:
		return Vec{X: lx, Y: lz, Z: ex - ly}
	case East:
		return Vec{X: ey - lx, Y: lz, Z: ly}
	case South:
		return Vec{X: ey - ly, Y: lz, Z: ex - lx}
	default:
		return Vec{X: ly, Y: lz, Z: lx}
	}
}

func Apply(v vox.Voxel, size vox.Size, d Direction, base Vec) Vec {
	off := Offset(v, size, d)
	return Vec{X: base.X + off.X, Y: base.Y + off.Y, Z: base.Z + off.Z}
}
