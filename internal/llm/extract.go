package llm

import "errors"

var (
	// ErrNoJSON means the text contains no opening brace.
	ErrNoJSON = errors.New("no JSON object in response")
	// ErrUnterminatedJSON means the first object never closes, usually a
	// truncated response.
	ErrUnterminatedJSON = errors.New("unterminated JSON object in response")
)

// ExtractJSON returns the first top-level {...} span of text. Braces inside
// string literals are ignored. The span is not validated as JSON.
func ExtractJSON(text string) (string, error) {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrUnterminatedJSON
}
