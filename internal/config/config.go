package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/distribution/reference"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level crossbake.yml configuration
type Config struct {
	Version    string     `yaml:"version"`
	Image      string     `yaml:"image"`      // Required: repository the combined images are pushed to
	BaseImage  string     `yaml:"base_image"` // Required: FROM line of every generated Dockerfile
	Command    []string   `yaml:"command"`    // Required: CMD of every generated Dockerfile
	PushBranch string     `yaml:"push_branch,omitempty"`
	CIFile     string     `yaml:"ci_file,omitempty"`
	OutputDir  string     `yaml:"output_dir,omitempty"`
	ReposDir   string     `yaml:"repos_dir,omitempty"`
	Upstreams  []Upstream `yaml:"upstreams"`
}

// Upstream describes one source repository whose build definitions are
// merged into the generated images. Order matters: the first upstream
// supplies the leading half of every image tag.
type Upstream struct {
	Name    string `yaml:"name"`
	Repo    string `yaml:"repo"`          // owner/name on GitHub
	Ref     string `yaml:"ref,omitempty"` // branch to track, defaults to master
	EnvVar  string `yaml:"env_var"`       // ENV variable carrying this upstream's version
	Variant string `yaml:"variant"`       // Dockerfile variant directory to splice from
}

// Validate performs strict validation on the configuration and applies
// defaults for the optional fields.
func (c *Config) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: image, without a tag. Tags are derived from upstream
	// versions, so a fixed tag here would be silently overridden.
	if c.Image == "" {
		return fmt.Errorf("image is required")
	}
	named, err := reference.ParseNormalizedNamed(c.Image)
	if err != nil {
		return fmt.Errorf("invalid image '%s': %w", c.Image, err)
	}
	if _, tagged := named.(reference.Tagged); tagged {
		return fmt.Errorf("image '%s' must not include a tag: tags are generated per version pair", c.Image)
	}
	if _, digested := named.(reference.Digested); digested {
		return fmt.Errorf("image '%s' must not include a digest: tags are generated per version pair", c.Image)
	}

	// Required: base_image
	if c.BaseImage == "" {
		return fmt.Errorf("base_image is required")
	}
	if _, err := reference.ParseNormalizedNamed(c.BaseImage); err != nil {
		return fmt.Errorf("invalid base_image '%s': %w", c.BaseImage, err)
	}

	// Required: command
	if len(c.Command) == 0 {
		return fmt.Errorf("command is required")
	}

	// Apply defaults for the optional fields
	if c.PushBranch == "" {
		c.PushBranch = "master"
	}
	if c.CIFile == "" {
		c.CIFile = ".travis.yml"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dockerfiles"
	}
	if c.ReposDir == "" {
		c.ReposDir = "repos"
	}

	// Exactly two upstreams: every generated image combines one build
	// definition from each, and every tag joins their two versions.
	if len(c.Upstreams) != 2 {
		return fmt.Errorf("exactly two upstreams are required, got %d", len(c.Upstreams))
	}

	for i := range c.Upstreams {
		if err := c.Upstreams[i].Validate(i); err != nil {
			return err
		}
	}

	// Enforce unique upstream names and env vars
	namesSeen := make(map[string]int)
	envVarsSeen := make(map[string]int)
	for i, upstream := range c.Upstreams {
		if prev, exists := namesSeen[upstream.Name]; exists {
			return fmt.Errorf("duplicate upstream name '%s' (positions %d and %d)", upstream.Name, prev+1, i+1)
		}
		namesSeen[upstream.Name] = i

		if prev, exists := envVarsSeen[upstream.EnvVar]; exists {
			return fmt.Errorf("duplicate upstream env_var '%s' (positions %d and %d)", upstream.EnvVar, prev+1, i+1)
		}
		envVarsSeen[upstream.EnvVar] = i
	}

	return nil
}

// Validate performs validation on a single upstream configuration
func (u *Upstream) Validate(position int) error {
	// Required: name
	if u.Name == "" {
		return fmt.Errorf("upstream #%d: name is required", position+1)
	}

	// Required: repo in owner/name form
	if u.Repo == "" {
		return fmt.Errorf("upstream '%s': repo is required", u.Name)
	}
	parts := strings.Split(u.Repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("upstream '%s': repo must be in 'owner/name' form, got '%s'", u.Name, u.Repo)
	}

	// Required: env_var
	if u.EnvVar == "" {
		return fmt.Errorf("upstream '%s': env_var is required", u.Name)
	}

	// Required: variant
	if u.Variant == "" {
		return fmt.Errorf("upstream '%s': variant is required", u.Name)
	}

	// Default: track master
	if u.Ref == "" {
		u.Ref = "master"
	}

	return nil
}

// Load reads and validates crossbake.yml from the specified path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
