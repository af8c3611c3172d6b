package router

// Matcher looks up a registered payload for a request method and path.
//
// Templates are grouped per method and tried in registration order; the first
// structural match wins. Overlapping templates are therefore resolved by
// registration order, and callers relying on the tie-break should register
// the more specific template first.
type Matcher struct {
	byMethod map[string][]entry
}

type entry struct {
	template *Template
	payload  any
}

// NewMatcher creates an empty matcher.
func NewMatcher() *Matcher {
	return &Matcher{byMethod: make(map[string][]entry)}
}

// Add registers a compiled template for a method with an opaque payload that
// is handed back on a successful match.
func (m *Matcher) Add(method string, t *Template, payload any) {
	m.byMethod[method] = append(m.byMethod[method], entry{template: t, payload: payload})
}

// Match returns the payload of the first registered template that matches the
// method and path, together with the extracted path variables. ok is false
// when no template matches.
func (m *Matcher) Match(method, path string) (payload any, vars map[string]string, ok bool) {
	for _, e := range m.byMethod[method] {
		if v, matched := e.template.Match(path); matched {
			return e.payload, v, true
		}
	}
	return nil, nil, false
}

// Len returns the number of templates registered for a method.
func (m *Matcher) Len(method string) int {
	return len(m.byMethod[method])
}
