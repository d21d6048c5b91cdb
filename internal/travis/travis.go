package travis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crossbake/crossbake/internal/matrix"
)

// marker is prepended to every written pipeline config so a reader knows
// the file is machine-managed.
const marker = "# generated by crossbake"

const (
	stageLabel = "Image Builds"
	cronGate   = "type NOT IN (cron)"
)

// Stage is one CI build-stage declaration covering a single representative
// build definition and every tag it accumulated.
type Stage struct {
	Stage  string   `yaml:"stage"`
	Name   string   `yaml:"name"`
	If     string   `yaml:"if"`
	Script []string `yaml:"script"`
}

// Document is a pipeline configuration loaded from disk. Its pre-existing
// structure is opaque; only the jobs section is ever rewritten.
type Document struct {
	doc map[string]interface{}
}

// Load reads and parses a pipeline configuration file. A malformed document
// is fatal to the run; there is no recovery path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config %s: %w", path, err)
	}
	if doc == nil {
		doc = make(map[string]interface{})
	}
	return &Document{doc: doc}, nil
}

// SetBuildStages installs the stages as the sole contents of the document's
// jobs section. Whatever was previously under jobs is discarded; every
// other top-level key is left untouched.
func (d *Document) SetBuildStages(stages []Stage) {
	d.doc["jobs"] = map[string]interface{}{
		"include": stages,
	}
}

// Write serializes the document back to path, prefixed with the
// generated-file marker comment.
func (d *Document) Write(path string) error {
	data, err := yaml.Marshal(d.doc)
	if err != nil {
		return fmt.Errorf("failed to serialize pipeline config: %w", err)
	}

	out := append([]byte(marker+"\n"), data...)
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write pipeline config %s: %w", path, err)
	}
	return nil
}

// Stages converts grouped build definitions into CI build stages, one per
// representative file, preserving group order.
func Stages(image, pushBranch string, groups []matrix.Group) []Stage {
	stages := make([]Stage, 0, len(groups))
	for _, g := range groups {
		stages = append(stages, buildStage(image, pushBranch, g))
	}
	return stages
}

// buildStage assembles the script for one representative: registry login,
// a single build of the file's parent directory, then one tag operation and
// one guarded push per tag, both in tag-list order. Pushes only happen on
// the configured branch.
func buildStage(image, pushBranch string, group matrix.Group) Stage {
	script := []string{
		"set -e",
		`echo "$DOCKER_PASSWORD" | docker login --username "$DOCKER_USERNAME" --password-stdin`,
		fmt.Sprintf("travis_retry docker build -t %s %s", image, filepath.Dir(group.Path)),
	}
	for _, tag := range group.Tags {
		script = append(script, fmt.Sprintf("docker tag %s %s:%s", image, image, tag))
	}
	for _, tag := range group.Tags {
		script = append(script, fmt.Sprintf(`[ "$TRAVIS_BRANCH" = "%s" ] && docker push %s:%s`, pushBranch, image, tag))
	}

	return Stage{
		Stage:  stageLabel,
		Name:   strings.Join(group.Tags, ", "),
		If:     cronGate,
		Script: script,
	}
}
