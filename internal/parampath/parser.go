package parampath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex is used to parse a single segment of a path, e.g. `name`,
// `name[1]` or `name[]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(?:\[(\d*)\])?$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	return name != "-"
}

// Parse creates a new Address by parsing its canonical string representation.
// The empty string parses to the root.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Root(), nil
	}

	var addr Address
	for _, segmentStr := range strings.Split(raw, ".") {
		if segmentStr == "" {
			return Address{}, fmt.Errorf("parameter path %q contains empty segment", raw)
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return Address{}, fmt.Errorf("invalid path segment format: %q", segmentStr)
		}

		name := matches[1]
		if !isValidSegmentName(name) {
			return Address{}, fmt.Errorf("invalid segment name: %q", name)
		}

		segment := NewPathSegment(name)
		if strings.HasSuffix(segmentStr, "]") {
			if matches[2] == "" {
				segment.Index = AnyIndex
			} else {
				index, err := strconv.Atoi(matches[2])
				if err != nil {
					return Address{}, fmt.Errorf("invalid index in segment %q: %w", segmentStr, err)
				}
				segment.Index = index
			}
		}
		addr.Path = append(addr.Path, segment)
	}

	return addr, nil
}

// MustParse is like Parse but panics on malformed input. It is intended for
// statically known paths.
func MustParse(raw string) Address {
	addr, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return addr
}
