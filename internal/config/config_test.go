package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a minimal configuration that passes validation.
// Tests mutate it to exercise individual rules.
func validConfig() *Config {
	return &Config{
		Version:   "1.0",
		Image:     "crossbake/python-node",
		BaseImage: "buildpack-deps:stretch",
		Command:   []string{"python3"},
		Upstreams: []Upstream{
			{Name: "python", Repo: "docker-library/python", EnvVar: "PYTHON_VERSION", Variant: "stretch"},
			{Name: "node", Repo: "nodejs/docker-node", EnvVar: "NODE_VERSION", Variant: "stretch"},
		},
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "crossbake.yml")

	// Write valid config
	validYAML := `version: "1.0"
image: "crossbake/python-node"
base_image: "buildpack-deps:stretch"
command: ["python3"]
push_branch: "main"
upstreams:
  - name: "python"
    repo: "docker-library/python"
    ref: "master"
    env_var: "PYTHON_VERSION"
    variant: "stretch"
  - name: "node"
    repo: "nodejs/docker-node"
    env_var: "NODE_VERSION"
    variant: "stretch"
`
	err := os.WriteFile(configPath, []byte(validYAML), 0644)
	require.NoError(t, err)

	// Load and validate
	config, err := Load(configPath)
	require.NoError(t, err)
	assert.NotNil(t, config)
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, "crossbake/python-node", config.Image)
	assert.Equal(t, "buildpack-deps:stretch", config.BaseImage)
	assert.Equal(t, []string{"python3"}, config.Command)
	assert.Equal(t, "main", config.PushBranch)
	assert.Len(t, config.Upstreams, 2)
	assert.Equal(t, "python", config.Upstreams[0].Name)
	assert.Equal(t, "docker-library/python", config.Upstreams[0].Repo)
	assert.Equal(t, "NODE_VERSION", config.Upstreams[1].EnvVar)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "crossbake.yml")

	// Only the required fields, everything optional omitted
	minimalYAML := `version: "1.0"
image: "crossbake/python-node"
base_image: "buildpack-deps:stretch"
command: ["python3"]
upstreams:
  - name: "python"
    repo: "docker-library/python"
    env_var: "PYTHON_VERSION"
    variant: "stretch"
  - name: "node"
    repo: "nodejs/docker-node"
    env_var: "NODE_VERSION"
    variant: "stretch"
`
	err := os.WriteFile(configPath, []byte(minimalYAML), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "master", config.PushBranch)
	assert.Equal(t, ".travis.yml", config.CIFile)
	assert.Equal(t, "dockerfiles", config.OutputDir)
	assert.Equal(t, "repos", config.ReposDir)
	assert.Equal(t, "master", config.Upstreams[0].Ref)
	assert.Equal(t, "master", config.Upstreams[1].Ref)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/crossbake.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "crossbake.yml")

	// Write invalid YAML
	invalidYAML := `version: "1.0"
upstreams:
  - this is invalid
    yaml syntax
`
	err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	config := validConfig()
	config.Version = "2.0"

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version: 2.0")
}

func TestValidate_MissingImage(t *testing.T) {
	config := validConfig()
	config.Image = ""

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "image is required")
}

func TestValidate_InvalidImage(t *testing.T) {
	config := validConfig()
	config.Image = "Not A Valid Reference"

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid image")
}

func TestValidate_ImageWithTag(t *testing.T) {
	config := validConfig()
	config.Image = "crossbake/python-node:latest"

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must not include a tag")
}

func TestValidate_ImageWithDigest(t *testing.T) {
	config := validConfig()
	config.Image = "crossbake/python-node@sha256:" + strings.Repeat("a", 64)

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must not include a digest")
}

func TestValidate_MissingBaseImage(t *testing.T) {
	config := validConfig()
	config.BaseImage = ""

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base_image is required")
}

func TestValidate_BaseImageMayCarryTag(t *testing.T) {
	config := validConfig()
	config.BaseImage = "buildpack-deps:stretch"

	err := config.Validate()
	assert.NoError(t, err)
}

func TestValidate_MissingCommand(t *testing.T) {
	config := validConfig()
	config.Command = nil

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "command is required")
}

func TestValidate_WrongUpstreamCount(t *testing.T) {
	config := validConfig()
	config.Upstreams = config.Upstreams[:1]

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exactly two upstreams are required, got 1")

	config = validConfig()
	config.Upstreams = append(config.Upstreams, Upstream{
		Name: "ruby", Repo: "docker-library/ruby", EnvVar: "RUBY_VERSION", Variant: "stretch",
	})

	err = config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exactly two upstreams are required, got 3")
}

func TestValidate_DuplicateUpstreamNames(t *testing.T) {
	config := validConfig()
	config.Upstreams[1].Name = "python"

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate upstream name 'python'")
	assert.Contains(t, err.Error(), "positions 1 and 2")
}

func TestValidate_DuplicateEnvVars(t *testing.T) {
	config := validConfig()
	config.Upstreams[1].EnvVar = "PYTHON_VERSION"

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate upstream env_var 'PYTHON_VERSION'")
}

func TestUpstreamValidate_MissingName(t *testing.T) {
	upstream := Upstream{
		Repo:    "docker-library/python",
		EnvVar:  "PYTHON_VERSION",
		Variant: "stretch",
	}

	err := upstream.Validate(0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upstream #1: name is required")
}

func TestUpstreamValidate_MissingRepo(t *testing.T) {
	upstream := Upstream{
		Name:    "python",
		EnvVar:  "PYTHON_VERSION",
		Variant: "stretch",
	}

	err := upstream.Validate(0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upstream 'python': repo is required")
}

func TestUpstreamValidate_MalformedRepo(t *testing.T) {
	repos := []string{"python", "docker-library/python/extra", "/python", "docker-library/"}
	for _, repo := range repos {
		upstream := Upstream{
			Name:    "python",
			Repo:    repo,
			EnvVar:  "PYTHON_VERSION",
			Variant: "stretch",
		}

		err := upstream.Validate(0)
		assert.Error(t, err, "repo %q should be rejected", repo)
		assert.Contains(t, err.Error(), "repo must be in 'owner/name' form")
	}
}

func TestUpstreamValidate_MissingEnvVar(t *testing.T) {
	upstream := Upstream{
		Name:    "python",
		Repo:    "docker-library/python",
		Variant: "stretch",
	}

	err := upstream.Validate(0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "env_var is required")
}

func TestUpstreamValidate_MissingVariant(t *testing.T) {
	upstream := Upstream{
		Name:   "python",
		Repo:   "docker-library/python",
		EnvVar: "PYTHON_VERSION",
	}

	err := upstream.Validate(0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "variant is required")
}

func TestUpstreamValidate_DefaultRef(t *testing.T) {
	upstream := Upstream{
		Name:    "python",
		Repo:    "docker-library/python",
		EnvVar:  "PYTHON_VERSION",
		Variant: "stretch",
	}

	err := upstream.Validate(0)
	require.NoError(t, err)
	assert.Equal(t, "master", upstream.Ref)
}
