package claims

import (
	"math"
	"strconv"
	"strings"

	textutil "landverify/pkg/platform/strings"
)

// path addresses a field inside the decoded answer, outermost key first.
type path []string

func (p path) String() string { return strings.Join(p, ".") }

type scoreField struct {
	at     path
	lo, hi int
}

// sanitizeRules lists the lenient repairs applied to one stage's answer.
type sanitizeRules struct {
	scores []scoreField
	bools  []path
	enums  []path
	lists  []path
}

// sanitize repairs common drift in model answers in place: surrounding
// whitespace, numeric strings, out-of-range scores, "yes"/"no" booleans,
// lower-case enum values, duplicated list entries and null strings. It returns
// a note per change.
func (r sanitizeRules) sanitize(doc map[string]any) []string {
	var changed []string
	note := func(p path, what string) { changed = append(changed, p.String()+"("+what+")") }

	trimStrings(doc, nil, note)

	for _, f := range r.scores {
		parent, key, ok := lookup(doc, f.at)
		if !ok {
			continue
		}
		n, ok := toNumber(parent[key])
		if !ok {
			delete(parent, key)
			note(f.at, "dropped")
			continue
		}
		v := int(math.Round(n))
		v = max(f.lo, min(f.hi, v))
		if float64(v) != n {
			note(f.at, "clamped")
		}
		parent[key] = float64(v)
	}

	for _, p := range r.bools {
		parent, key, ok := lookup(doc, p)
		if !ok {
			continue
		}
		if s, isStr := parent[key].(string); isStr {
			if b, ok := parseLooseBool(s); ok {
				parent[key] = b
				note(p, "bool")
			}
		}
	}

	for _, p := range r.enums {
		parent, key, ok := lookup(doc, p)
		if !ok {
			continue
		}
		if s, isStr := parent[key].(string); isStr {
			up := strings.ToUpper(strings.ReplaceAll(s, " ", "_"))
			if up != s {
				parent[key] = up
				note(p, "enum")
			}
		}
	}

	for _, p := range r.lists {
		parent, key, ok := lookup(doc, p)
		if !ok {
			continue
		}
		switch v := parent[key].(type) {
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				if s, isStr := item.(string); isStr {
					items = append(items, s)
				}
			}
			deduped := textutil.DedupeFold(items)
			if len(deduped) != len(v) {
				note(p, "deduped")
			}
			out := make([]any, len(deduped))
			for i, s := range deduped {
				out[i] = s
			}
			parent[key] = out
		case string:
			if v == "" {
				parent[key] = []any{}
			} else {
				parent[key] = []any{v}
			}
			note(p, "wrapped")
		case nil:
			parent[key] = []any{}
			note(p, "null")
		}
	}

	return changed
}

// trimStrings collapses whitespace in every string and replaces null with ""
// for keys that are not containers.
func trimStrings(m map[string]any, prefix path, note func(path, string)) {
	for k, v := range m {
		here := append(append(path{}, prefix...), k)
		switch t := v.(type) {
		case string:
			m[k] = textutil.CollapseSpace(t)
		case map[string]any:
			trimStrings(t, here, note)
		case nil:
			m[k] = ""
			note(here, "null")
		}
	}
}

// lookup walks p and returns the map holding its last key.
func lookup(doc map[string]any, p path) (map[string]any, string, bool) {
	if len(p) == 0 {
		return nil, "", false
	}
	cur := doc
	for _, k := range p[:len(p)-1] {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil, "", false
		}
		cur = next
	}
	last := p[len(p)-1]
	if _, ok := cur[last]; !ok {
		return nil, "", false
	}
	return cur, last, true
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		// "85%" and "7/10" are common spellings of scores.
		s = strings.TrimSuffix(s, "%")
		if i := strings.Index(s, "/"); i > 0 {
			s = s[:i]
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func parseLooseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "found", "detected", "present":
		return true, true
	case "", "false", "no", "n", "not found", "absent", "none":
		return false, true
	default:
		return false, false
	}
}
