package claims

import "encoding/json"

// FirstObject returns the first balanced {...} block in text that is valid
// JSON. Braces inside string literals are ignored. Surrounding prose and
// markdown fences are tolerated.
func FirstObject(text string) ([]byte, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end, ok := matchBrace(text, start)
		if !ok {
			continue
		}
		candidate := []byte(text[start : end+1])
		if json.Valid(candidate) {
			return candidate, true
		}
	}
	return nil, false
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
