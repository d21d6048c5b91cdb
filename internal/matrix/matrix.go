package matrix

import (
	"sort"

	"github.com/crossbake/crossbake/internal/semver"
)

// offsets are the truncation precisions applied to each axis, in the order
// they are walked. Zero keeps the full version string; negative values drop
// that many trailing components.
var offsets = []int{-2, -1, 0}

// tagSeparator joins the two truncated axis versions into a tag key.
const tagSeparator = "-"

// Artifact is one candidate build definition annotated with the version
// declared inside it for each upstream axis. A nil version means the file
// carries no declaration for that axis; it still participates in grouping.
type Artifact struct {
	Path     string
	Versions [2]*semver.Version
}

// Group is one output row: a representative build definition and every tag
// key that elected it, in first-computed order with no repeats.
type Group struct {
	Path string   `json:"dockerfile"`
	Tags []string `json:"tags"`
}

// Build elects a representative build definition for every truncation of
// the two version axes and accumulates the tags each file won.
//
// Artifacts are ordered by (axis A, axis B) version descending, so within
// one offset pair the highest version combination is seen first and wins
// its tag key. All nine offset pairs from {-2,-1,0} x {-2,-1,0} are walked
// in product order (axis A outer). The returned groups preserve the order
// in which files first won a tag.
func Build(artifacts []Artifact) []Group {
	sorted := make([]Artifact, len(artifacts))
	copy(sorted, artifacts)
	sortDescending(sorted)

	var paths []string
	tags := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, offA := range offsets {
		for _, offB := range offsets {
			for _, rep := range representatives(sorted, offA, offB) {
				if seen[rep.path] == nil {
					paths = append(paths, rep.path)
					seen[rep.path] = make(map[string]bool)
				}
				if seen[rep.path][rep.tag] {
					continue
				}
				seen[rep.path][rep.tag] = true
				tags[rep.path] = append(tags[rep.path], rep.tag)
			}
		}
	}

	groups := make([]Group, 0, len(paths))
	for _, path := range paths {
		groups = append(groups, Group{Path: path, Tags: tags[path]})
	}
	return groups
}

// representative pairs one tag key with the file that won it.
type representative struct {
	tag  string
	path string
}

// representatives computes, for a single offset pair, the first artifact in
// the (descending) input order for every distinct tag key. Entries come
// back in election order, which is what makes the accumulated tag lists
// deterministic.
func representatives(sorted []Artifact, offA, offB int) []representative {
	taken := make(map[string]bool)
	var reps []representative

	for _, a := range sorted {
		key := a.Versions[0].Truncate(offA) + tagSeparator + a.Versions[1].Truncate(offB)
		if taken[key] {
			continue
		}
		taken[key] = true
		reps = append(reps, representative{tag: key, path: a.Path})
	}
	return reps
}

// sortDescending orders artifacts by (axis A, axis B) version, highest
// first. The underlying sort is stable and the slice is then reversed, so
// artifacts with equal version pairs come out in reverse input order.
func sortDescending(artifacts []Artifact) {
	sort.SliceStable(artifacts, func(i, j int) bool {
		if c := semver.Compare(artifacts[i].Versions[0], artifacts[j].Versions[0]); c != 0 {
			return c < 0
		}
		return semver.Compare(artifacts[i].Versions[1], artifacts[j].Versions[1]) < 0
	})

	for i, j := 0, len(artifacts)-1; i < j; i, j = i+1, j-1 {
		artifacts[i], artifacts[j] = artifacts[j], artifacts[i]
	}
}
