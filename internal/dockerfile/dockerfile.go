package dockerfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crossbake/crossbake/internal/matrix"
	"github.com/crossbake/crossbake/internal/semver"
)

// Versions scans a build definition for `ENV <NAME> <VERSION>` declarations
// matching the two axis variable names and returns the parsed version for
// each axis. Declarations for other names are ignored; a missing
// declaration leaves that axis nil. When the same name is declared twice
// the later declaration wins, mirroring how the instruction behaves in an
// image build.
func Versions(path string, envVars [2]string) ([2]*semver.Version, error) {
	var versions [2]*semver.Version

	f, err := os.Open(path)
	if err != nil {
		return versions, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[0] != "ENV" {
			continue
		}
		for i, name := range envVars {
			if fields[1] != name {
				continue
			}
			v, err := semver.Parse(fields[2])
			if err != nil {
				return [2]*semver.Version{}, fmt.Errorf("%s: ENV %s: %w", path, name, err)
			}
			versions[i] = v
		}
	}
	if err := scanner.Err(); err != nil {
		return [2]*semver.Version{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return versions, nil
}

// ScanArtifacts globs `<outputDir>/*/Dockerfile` and annotates every match
// with its axis versions. Glob results come back sorted, so repeated scans
// of the same tree produce the same artifact order.
func ScanArtifacts(outputDir string, envVars [2]string) ([]matrix.Artifact, error) {
	paths, err := filepath.Glob(filepath.Join(outputDir, "*", "Dockerfile"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", outputDir, err)
	}

	artifacts := make([]matrix.Artifact, 0, len(paths))
	for _, path := range paths {
		versions, err := Versions(path, envVars)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, matrix.Artifact{Path: path, Versions: versions})
	}
	return artifacts, nil
}
