package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"voxbridge/internal/build"
	"voxbridge/internal/config"
	"voxbridge/internal/persistence/journal"
	"voxbridge/internal/protocol"
	"voxbridge/internal/trigger"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "builds":
			buildsCmd(os.Args[2:])
			return
		case "journal":
			journalCmd(os.Args[2:])
			return
		case "plan":
			planCmd(os.Args[2:])
			return
		case "metrics":
			metricsCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the journal files under the data directory, oldest first.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	files, err := journalFiles(filepath.Join(*dataDir, "journal"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, f := range files {
		fmt.Println(f)
	}
}

func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	file := fs.String("file", "", "journal file (optional; defaults to the latest)")
	buildID := fs.String("build", "", "build id filter")
	kind := fs.String("kind", "", "entry kind filter: placement|build")
	aabb := fs.String("aabb", "", "placement AABB filter: x1,y1,z1:x2,y2,z2")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*file)
	if path == "" {
		files, err := journalFiles(filepath.Join(*dataDir, "journal"))
		if err != nil || len(files) == 0 {
			fmt.Fprintln(os.Stderr, "no journal found; provide -file or run the bridge until it records a build")
			os.Exit(2)
		}
		path = files[len(files)-1]
	}

	var box *[2][3]int
	if s := strings.TrimSpace(*aabb); s != "" {
		min, max, err := parseAABB(s)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -aabb:", err)
			os.Exit(2)
		}
		box = &[2][3]int{min, max}
	}

	err := journal.ReadLines(path, func(line []byte) error {
		var e journal.Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		if *buildID != "" && e.BuildID != *buildID {
			return nil
		}
		if *kind != "" && e.Kind != *kind {
			return nil
		}
		if box != nil && (e.Kind != journal.KindPlacement || !withinAABB([3]int{e.X, e.Y, e.Z}, box[0], box[1])) {
			return nil
		}
		_, err := os.Stdout.Write(append(line, '\n'))
		return err
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read journal:", err)
		os.Exit(1)
	}
}

// planCmd resolves a build offline and prints the command lines it would
// send: admin plan [-root DIR] <model> <x,y,z> [n|s|e|w].
func planCmd(args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	root := fs.String("root", config.DefaultRoot(), "directory holding vox/ and palette.json")
	_ = fs.Parse(args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: admin plan [-root DIR] <model> <x,y,z> [n|s|e|w]")
		os.Exit(2)
	}
	text := fmt.Sprintf("build %s %s", fs.Arg(0), fs.Arg(1))
	if fs.NArg() > 2 {
		text += " " + fs.Arg(2)
	}
	req, ok := trigger.Parse(text)
	if !ok {
		fmt.Fprintf(os.Stderr, "not a valid build request: %q\n", text)
		os.Exit(2)
	}

	d := build.NewDispatcher(build.Config{Layout: build.Layout{Root: *root}}, nil, nil, nil)
	plan, err := d.Plan(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		os.Exit(1)
	}
	if plan == nil {
		fmt.Fprintf(os.Stderr, "%s or palette.json not found under %s\n", req.Model, *root)
		os.Exit(2)
	}
	for _, b := range plan {
		fmt.Println(protocol.SetBlockLine(b.Pos.X, b.Pos.Y, b.Pos.Z, b.Block, protocol.ReplaceMode))
	}
	fmt.Fprintf(os.Stderr, "%d blocks facing %v from %v\n", len(plan), req.Direction, req.Base)
}

func journalFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl.zst") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	// Hour-stamped names sort chronologically.
	sort.Strings(out)
	return out, nil
}

func withinAABB(pos [3]int, min, max [3]int) bool {
	return pos[0] >= min[0] && pos[0] <= max[0] &&
		pos[1] >= min[1] && pos[1] <= max[1] &&
		pos[2] >= min[2] && pos[2] <= max[2]
}

func parseAABB(s string) (min, max [3]int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return min, max, fmt.Errorf("expected x1,y1,z1:x2,y2,z2")
	}
	a, err := parseVec3(parts[0])
	if err != nil {
		return min, max, err
	}
	b, err := parseVec3(parts[1])
	if err != nil {
		return min, max, err
	}
	for i := 0; i < 3; i++ {
		if a[i] <= b[i] {
			min[i], max[i] = a[i], b[i]
		} else {
			min[i], max[i] = b[i], a[i]
		}
	}
	return min, max, nil
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
