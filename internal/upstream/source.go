package upstream

import (
	"fmt"
	"path/filepath"
)

// Source is one resolved upstream snapshot pinned to a commit.
type Source struct {
	Name   string // axis name from configuration
	Repo   string // "owner/name"
	Commit string // resolved commit SHA
	Dir    string // extracted snapshot directory
}

// Definitions lists the variant build definitions published by the
// snapshot: one `<version>/<variant>/Dockerfile` per version directory.
// Results come back sorted so repeated runs see the same order. A snapshot
// without the variant yields an error, since no combination could be
// generated from it.
func (s Source) Definitions(variant string) ([]string, error) {
	pattern := filepath.Join(s.Dir, "*", variant, "Dockerfile")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot %s: %w", s.Dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no '%s' build definitions found under %s", variant, s.Dir)
	}
	return paths, nil
}
