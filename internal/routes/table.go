package routes

import (
	"sort"
	"strings"

	"github.com/baladiya/citizen-portal/internal/rbac"
)

// Rule maps a path prefix to the roles allowed on it.
type Rule struct {
	Prefix string
	Roles  rbac.RoleSet
}

// Table is an immutable prefix table. A prefix matches a path when it equals
// the path or is one of its segment ancestors; the longest match wins.
type Table struct {
	rules []Rule
}

// NewTable builds a Table from rules. Prefixes are normalized; a later
// duplicate prefix replaces the earlier one.
func NewTable(rules ...Rule) *Table {
	byPrefix := make(map[string]Rule, len(rules))
	for _, rule := range rules {
		rule.Prefix = Normalize(rule.Prefix)
		byPrefix[rule.Prefix] = rule
	}
	sorted := make([]Rule, 0, len(byPrefix))
	for _, rule := range byPrefix {
		sorted = append(sorted, rule)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Prefix < sorted[j].Prefix })
	return &Table{rules: sorted}
}

// NewPrefixList builds a Table without role payloads, for membership checks.
func NewPrefixList(prefixes ...string) *Table {
	rules := make([]Rule, len(prefixes))
	for i, p := range prefixes {
		rules[i] = Rule{Prefix: p}
	}
	return NewTable(rules...)
}

// Match returns the rule with the longest prefix matching path.
func (t *Table) Match(path string) (Rule, bool) {
	if t == nil || len(t.rules) == 0 {
		return Rule{}, false
	}
	candidate := Normalize(path)
	for {
		if rule, ok := t.find(candidate); ok {
			return rule, true
		}
		i := strings.LastIndexByte(candidate, '/')
		if i <= 0 {
			return Rule{}, false
		}
		candidate = candidate[:i]
	}
}

// Contains reports whether any prefix in the table matches path.
func (t *Table) Contains(path string) bool {
	_, ok := t.Match(path)
	return ok
}

// Len returns the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

func (t *Table) find(prefix string) (Rule, bool) {
	i := sort.Search(len(t.rules), func(i int) bool { return t.rules[i].Prefix >= prefix })
	if i < len(t.rules) && t.rules[i].Prefix == prefix {
		return t.rules[i], true
	}
	return Rule{}, false
}

// Normalize removes a trailing slash from non-root paths and maps "" to "/".
func Normalize(path string) string {
	if path == "" {
		return "/"
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

// HasDotSegment reports whether path contains a "." or ".." segment. A
// backslash counts as a separator, as it does for WHATWG URL parsers.
func HasDotSegment(path string) bool {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	for _, seg := range segments {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}
