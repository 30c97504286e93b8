package trigger

import (
	"regexp"
	"strconv"

	"voxbridge/internal/transform"
)

// Request is a parsed "build" chat directive.
type Request struct {
	Model     string
	Base      transform.Vec
	Direction transform.Direction
}

// build <name> <x>,<y>,<z>[ <direction>]
var buildRe = regexp.MustCompile(`^build ([^ ]+) (\d+),(\d+),(\d+)( *[a-z]*)`)

// Parse extracts a build directive from chat text. Text that does not match
// the grammar (or whose coordinates overflow uint32) is not a trigger.
func Parse(text string) (Request, bool) {
	m := buildRe.FindStringSubmatch(text)
	if m == nil {
		return Request{}, false
	}
	var xyz [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(m[2+i], 10, 32)
		if err != nil {
			return Request{}, false
		}
		xyz[i] = int(v)
	}
	return Request{
		Model:     m[1],
		Base:      transform.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		Direction: transform.ParseDirection(m[5]),
	}, true
}
