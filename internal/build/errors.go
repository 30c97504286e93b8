package build

import (
	"fmt"

	"voxbridge/internal/vox"
)

// PaletteMissError aborts a build whose model uses a color with no palette
// entry. Resolution runs before streaming, so nothing has been sent.
type PaletteMissError struct {
	Color string
	Voxel vox.Voxel
}

func (e *PaletteMissError) Error() string {
	return fmt.Sprintf("no palette entry for color %s (voxel %d,%d,%d index %d)", e.Color, e.Voxel.X, e.Voxel.Y, e.Voxel.Z, e.Voxel.Index)
}

// TransportError stops a build whose command could not be handed to the
// session. Sent commands stay sent.
type TransportError struct {
	Sent int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send after %d commands: %v", e.Sent, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
