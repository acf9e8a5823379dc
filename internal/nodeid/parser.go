package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single segment of a destination, e.g. `envs` or `num_retries`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_+-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "-" || name == "+" || strings.HasPrefix(name, "-") {
		return false
	}
	return true
}

// ValidateSegment reports whether name can be used as one segment of an Address.
func ValidateSegment(name string) error {
	if name == "" {
		return fmt.Errorf("destination contains empty segment")
	}
	if !segmentRegex.MatchString(name) {
		return fmt.Errorf("invalid destination segment: %q", name)
	}
	if !isValidSegmentName(name) {
		return fmt.Errorf("invalid segment name: %q", name)
	}
	return nil
}

// Parse creates a new Address by parsing its canonical string representation.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("destination cannot be empty")
	}

	var addr Address
	for _, segment := range strings.Split(raw, ".") {
		if err := ValidateSegment(segment); err != nil {
			return Address{}, err
		}
		addr.Path = append(addr.Path, segment)
	}
	return addr, nil
}

// MustParse is like Parse but panics on error. Intended for static destinations.
func MustParse(raw string) Address {
	addr, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return addr
}
