package vox

// defaultPalette is MagicaVoxel's built-in palette, used when a file has no
// RGBA chunk. It is returned already shifted so that entry k is the color of
// file index k+1, matching how RGBA chunks are stored.
func defaultPalette() [256]uint32 {
	// byColorIndex[0] is the empty slot.
	var byColorIndex [256]uint32
	i := 1
	steps := []uint8{0xff, 0xcc, 0x99, 0x66, 0x33, 0x00}
	for _, r := range steps {
		for _, g := range steps {
			for _, b := range steps {
				if r == 0 && g == 0 && b == 0 {
					continue
				}
				byColorIndex[i] = Pack(RGB{R: r, G: g, B: b}, 0xff)
				i++
			}
		}
	}
	ramp := []uint8{0xee, 0xdd, 0xbb, 0xaa, 0x88, 0x77, 0x55, 0x44, 0x22, 0x11}
	for _, v := range ramp {
		byColorIndex[i] = Pack(RGB{R: v}, 0xff)
		i++
	}
	for _, v := range ramp {
		byColorIndex[i] = Pack(RGB{G: v}, 0xff)
		i++
	}
	for _, v := range ramp {
		byColorIndex[i] = Pack(RGB{B: v}, 0xff)
		i++
	}
	for _, v := range ramp {
		byColorIndex[i] = Pack(RGB{R: v, G: v, B: v}, 0xff)
		i++
	}

	var out [256]uint32
	for k := 0; k < 255; k++ {
		out[k] = byColorIndex[k+1]
	}
	out[255] = byColorIndex[0]
	return out
}
