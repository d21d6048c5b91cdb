package dockerfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// header marks composed files as machine-written.
const header = "# This is generated by crossbake, don't edit it directly"

// Compose writes a derived build definition to dst: the generated-file
// header, a single FROM for the shared base image, each source file spliced
// in with its own FROM and CMD instructions dropped, and a final exec-form
// CMD. Parent directories are created as needed. Nothing is written if any
// source fails to read.
func Compose(dst, baseImage string, command []string, sources ...string) error {
	var buf bytes.Buffer
	buf.WriteString(header + "\n")
	fmt.Fprintf(&buf, "FROM %s\n\n", baseImage)

	for _, src := range sources {
		if err := includeInto(&buf, src); err != nil {
			return err
		}
	}

	cmd, err := json.Marshal(command)
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}
	fmt.Fprintf(&buf, "CMD %s\n", cmd)

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// DerivedName returns the directory name for a composed build definition:
// the version directory of each source joined with a dash, so
// repos/python-abc123/3.9/stretch/Dockerfile combined with
// repos/docker-node-def456/14/stretch/Dockerfile becomes "3.9-14".
func DerivedName(srcA, srcB string) string {
	return versionDir(srcA) + "-" + versionDir(srcB)
}

// versionDir extracts the version directory two levels above the file.
func versionDir(path string) string {
	return filepath.Base(filepath.Dir(filepath.Dir(path)))
}

// includeInto copies src line by line, dropping FROM and CMD instructions
// so the composed file keeps exactly one base image and one final command.
func includeInto(w io.Writer, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", src, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch instruction(line) {
		case "FROM", "CMD":
			continue
		}
		fmt.Fprintln(w, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read source %s: %w", src, err)
	}
	return nil
}

// instruction returns the upper-cased first token of a line, or "" for a
// blank line.
func instruction(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
