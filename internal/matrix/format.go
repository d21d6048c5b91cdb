package matrix

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes groups as a formatted table to the provided writer.
// Columns are DOCKERFILE and TAGS; the path column is sized to the longest
// path. Returns the number of groups formatted.
func FormatTable(w io.Writer, groups []Group) int {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No build definitions found")
		return 0
	}

	width := len("DOCKERFILE")
	for _, g := range groups {
		if len(g.Path) > width {
			width = len(g.Path)
		}
	}

	fmt.Fprintf(w, "%-*s  %s\n", width, "DOCKERFILE", "TAGS")
	for _, g := range groups {
		fmt.Fprintf(w, "%-*s  %s\n", width, g.Path, strings.Join(g.Tags, ", "))
	}

	countMsg := "build definition"
	if len(groups) != 1 {
		countMsg = "build definitions"
	}
	fmt.Fprintf(w, "\n%d %s\n", len(groups), countMsg)

	return len(groups)
}

// FormatJSONL writes groups as line-delimited JSON, one group per line.
// Suited to piping into tools like jq.
func FormatJSONL(w io.Writer, groups []Group) error {
	for _, g := range groups {
		data, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("failed to marshal group to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}
