package scaffold

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode

	// SkipIfPresent leaves an existing file untouched instead of
	// overwriting it. The CI config may predate the project: generate
	// merges into it, so init must not clobber it.
	SkipIfPresent bool
}

// Initialize creates the crossbake project structure and returns the
// paths it wrote. If force is true, an existing crossbake.yml is
// removed first.
func Initialize(force bool) ([]string, error) {
	if force {
		if err := handleForce(); err != nil {
			return nil, err
		}
	}

	files, err := templateFiles()
	if err != nil {
		return nil, err
	}

	created, err := writeFiles(files)
	if err != nil {
		return nil, err
	}

	if err := validateCreatedFiles(created); err != nil {
		return nil, err
	}

	return created, nil
}

// handleForce removes existing files if --force was specified
func handleForce() error {
	if _, err := os.Stat("crossbake.yml"); err == nil {
		fmt.Println("⚠️  Removing existing crossbake.yml...")
		if err := os.Remove("crossbake.yml"); err != nil {
			return fmt.Errorf("failed to remove crossbake.yml: %w", err)
		}
	}

	return nil
}

// templateFiles reads all template files
func templateFiles() ([]FileInfo, error) {
	files := []FileInfo{}

	// crossbake.yml
	configYml, err := templatesFS.ReadFile("templates/crossbake.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read crossbake.yml template: %w", err)
	}
	files = append(files, FileInfo{
		Path:        "crossbake.yml",
		Content:     configYml,
		Permissions: 0644,
	})

	// .travis.yml
	travisYml, err := templatesFS.ReadFile("templates/travis.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read .travis.yml template: %w", err)
	}
	files = append(files, FileInfo{
		Path:          ".travis.yml",
		Content:       travisYml,
		Permissions:   0644,
		SkipIfPresent: true,
	})

	return files, nil
}

// writeFiles writes template files to disk and reports which paths
// were actually created
func writeFiles(files []FileInfo) ([]string, error) {
	created := []string{}

	for _, file := range files {
		if file.SkipIfPresent {
			if _, err := os.Stat(file.Path); err == nil {
				continue
			}
		}

		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
		created = append(created, file.Path)
	}

	return created, nil
}

// validateCreatedFiles checks that every created file is valid YAML
func validateCreatedFiles(created []string) error {
	for _, path := range created {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read created %s: %w", path, err)
		}

		var yamlData interface{}
		if err := yaml.Unmarshal(content, &yamlData); err != nil {
			return fmt.Errorf("created %s is not valid YAML: %w", path, err)
		}
	}

	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(created []string) {
	fmt.Println("\n✅ Successfully initialized crossbake project!")
	fmt.Println("\nCreated:")
	for _, path := range created {
		fmt.Printf("  ✓ %s\n", path)
	}
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Add 'repos/' to your .gitignore file")
	fmt.Println("  2. Edit crossbake.yml to point at your upstream repositories")
	fmt.Println("  3. Run 'crossbake generate' to produce Dockerfiles and CI config")
}
