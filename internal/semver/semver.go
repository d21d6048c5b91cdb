package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// None is the rendered form of a missing version. Lowercase so that tag
// keys built from it remain valid Docker tag fragments.
const None = "none"

// Version is an explicit (major, minor, patch) triple parsed from a dotted
// version string. The original string is retained verbatim because tag keys
// are derived from it, not from a re-rendered canonical form.
//
// A nil *Version represents an absent declaration: it sorts below every
// parsed version and renders as None.
type Version struct {
	Major int
	Minor int
	Patch int

	raw string
}

// Parse parses a dotted version string such as "3.9.1" or "14.2" into a
// Version. Missing minor/patch components default to zero. Each component
// must begin with a decimal number; a non-numeric trailer (the "b3" in
// "3.10.0b3") stays in the original string but does not participate in
// ordering. Components beyond the third are preserved in the original
// string only.
func Parse(s string) (*Version, error) {
	if s == "" {
		return nil, fmt.Errorf("empty version string")
	}

	var nums [3]int
	for i, part := range strings.Split(s, ".") {
		if i >= len(nums) {
			break
		}
		n, err := leadingInt(part)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: component %q does not start with a number", s, part)
		}
		nums[i] = n
	}

	return &Version{Major: nums[0], Minor: nums[1], Patch: nums[2], raw: s}, nil
}

// leadingInt parses the decimal prefix of a version component.
func leadingInt(s string) (int, error) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("no leading digits in %q", s)
	}
	return strconv.Atoi(s[:end])
}

// Compare orders two versions by their numeric (major, minor, patch)
// triples, returning -1, 0 or +1. A nil version sorts below every parsed
// version; two nil versions compare equal.
func Compare(a, b *Version) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	return compareInt(a.Patch, b.Patch)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String returns the version exactly as it was parsed. A nil version
// renders as None.
func (v *Version) String() string {
	if v == nil {
		return None
	}
	return v.raw
}

// Truncate returns the version string reduced to its first
// len(components)+offset dot-separated components. An offset of zero or
// more always returns the full original string unchanged, regardless of how
// many components the string has. Offsets that consume every component
// return the empty string. A nil version truncates its None form.
func (v *Version) Truncate(offset int) string {
	s := v.String()
	if offset >= 0 {
		return s
	}

	parts := strings.Split(s, ".")
	keep := len(parts) + offset
	if keep <= 0 {
		return ""
	}
	return strings.Join(parts[:keep], ".")
}
