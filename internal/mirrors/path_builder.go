package mirrors

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// PathBuilder derives mirror paths as <root>/<owner>/<name>.
type PathBuilder struct {
	root string
}

// NewPathBuilder creates a new PathBuilder.
func NewPathBuilder(root string) *PathBuilder {
	return &PathBuilder{root: root}
}

// Root returns the storage root.
func (p *PathBuilder) Root() string {
	return p.root
}

// BuildPath builds the mirror path for a descriptor. Owner and name must be
// single path segments so the result never escapes the root.
func (p *PathBuilder) BuildPath(d Descriptor) (string, error) {
	for _, segment := range []string{d.Owner, d.Name} {
		if err := validateSegment(segment); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, d.FullName(), err)
		}
	}

	return filepath.Join(p.root, d.Owner, d.Name), nil
}

func validateSegment(segment string) error {
	switch {
	case segment == "":
		return errors.New("empty path segment")
	case segment == "." || segment == "..":
		return fmt.Errorf("path segment %q is reserved", segment)
	case strings.ContainsAny(segment, `/\`+"\x00"):
		return fmt.Errorf("path segment %q contains a separator", segment)
	}

	return nil
}
