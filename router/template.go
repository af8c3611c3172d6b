// Package router compiles URL path templates and matches incoming request
// paths against them.
//
// A template is a sequence of slash-separated segments. Each segment is a
// literal, a named variable (":name", optionally constrained with an inline
// regular expression as ":name(re)"), or a rest variable ("*name") that
// captures the remainder of the path and must be the last segment.
package router

import (
	"fmt"
	"regexp"
	"strings"
)

type segmentKind uint8

const (
	literal segmentKind = iota
	variable
	rest
)

type segment struct {
	kind    segmentKind
	value   string // literal text or variable name
	pattern *regexp.Regexp
}

// Template is a compiled path template. It is immutable after compilation and
// safe for concurrent use.
type Template struct {
	raw      string
	segments []segment
	varNames []string
}

// ParseTemplate compiles a path template. The path must begin with '/'.
func ParseTemplate(path string) (*Template, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("path template must begin with '/': %q", path)
	}

	t := &Template{raw: path}
	if path == "/" {
		return t, nil
	}

	parts := strings.Split(path[1:], "/")
	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, ":"):
			name, expr, err := splitConstraint(part[1:])
			if err != nil {
				return nil, fmt.Errorf("invalid segment %q in %q: %w", part, path, err)
			}
			if name == "" {
				return nil, fmt.Errorf("unnamed variable segment in %q", path)
			}
			seg := segment{kind: variable, value: name}
			if expr != "" {
				re, err := regexp.Compile("^(?:" + expr + ")$")
				if err != nil {
					return nil, fmt.Errorf("invalid constraint for %q in %q: %w", name, path, err)
				}
				seg.pattern = re
			}
			t.segments = append(t.segments, seg)
			t.varNames = append(t.varNames, name)

		case strings.HasPrefix(part, "*"):
			name := part[1:]
			if name == "" {
				return nil, fmt.Errorf("unnamed rest segment in %q", path)
			}
			if i != len(parts)-1 {
				return nil, fmt.Errorf("rest segment %q must be last in %q", part, path)
			}
			t.segments = append(t.segments, segment{kind: rest, value: name})
			t.varNames = append(t.varNames, name)

		default:
			t.segments = append(t.segments, segment{kind: literal, value: part})
		}
	}
	return t, nil
}

// MustParseTemplate is like ParseTemplate but panics on error. Intended for
// static registration at startup.
func MustParseTemplate(path string) *Template {
	t, err := ParseTemplate(path)
	if err != nil {
		panic(err)
	}
	return t
}

// splitConstraint splits "name(re)" into name and re. A bare name yields an
// empty expression.
func splitConstraint(s string) (name, expr string, err error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, "", nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", "", fmt.Errorf("unterminated constraint")
	}
	return s[:open], s[open+1 : len(s)-1], nil
}

// String returns the original template text.
func (t *Template) String() string {
	return t.raw
}

// VarNames returns the variable names in declaration order.
func (t *Template) VarNames() []string {
	return t.varNames
}

// Match reports whether path structurally matches the template and, if so,
// returns the extracted variable values keyed by name. Literal segments must
// be equal, variable segments match exactly one path segment (subject to
// their constraint), and a rest segment consumes the remaining path.
func (t *Template) Match(path string) (map[string]string, bool) {
	if path == "" || path[0] != '/' {
		return nil, false
	}
	if len(t.segments) == 0 {
		if path == "/" {
			return map[string]string{}, true
		}
		return nil, false
	}

	remaining := path[1:]
	vars := make(map[string]string, len(t.varNames))

	for i, seg := range t.segments {
		if seg.kind == rest {
			vars[seg.value] = remaining
			return vars, true
		}

		var part string
		if slash := strings.IndexByte(remaining, '/'); slash >= 0 {
			part, remaining = remaining[:slash], remaining[slash+1:]
		} else {
			part, remaining = remaining, ""
		}

		switch seg.kind {
		case literal:
			if part != seg.value {
				return nil, false
			}
		case variable:
			if part == "" {
				return nil, false
			}
			if seg.pattern != nil && !seg.pattern.MatchString(part) {
				return nil, false
			}
			vars[seg.value] = part
		}

		// Path exhausted before the template.
		if remaining == "" && i < len(t.segments)-1 && t.segments[i+1].kind != rest {
			return nil, false
		}
	}

	if remaining != "" {
		return nil, false
	}
	return vars, true
}
