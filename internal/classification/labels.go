package classification

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/memo-tagger/internal/domain"
)

// DefaultMaxLabels is the number of labels kept when no limit is configured.
const DefaultMaxLabels = 5

// ExtractLabels finds the first JSON array in a model answer and decodes it
// as a list of strings. Models often wrap the array in prose or a code
// fence, so everything outside the outermost brackets is ignored.
func ExtractLabels(answer string) ([]string, error) {
	start := strings.Index(answer, "[")
	end := strings.LastIndex(answer, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in answer", ErrInvalidResponse)
	}

	var raw []interface{}
	if err := json.Unmarshal([]byte(answer[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	labels := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			labels = append(labels, s)
		}
	}
	return labels, nil
}

// NormalizeLabels cleans raw labels into storable tag names: surrounding
// whitespace and leading '#' are stripped, inner whitespace is collapsed,
// empty and reserved names are dropped, names are cut to
// domain.MaxTagNameLength runes, duplicates are removed case-insensitively
// keeping the first spelling, and at most max names are returned.
func NormalizeLabels(raw []string, max int) []string {
	if max <= 0 {
		max = DefaultMaxLabels
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, min(len(raw), max))
	for _, label := range raw {
		name := strings.Join(strings.Fields(strings.TrimLeft(strings.TrimSpace(label), "#")), " ")
		if name == "" || domain.IsSentinelTag(name) {
			continue
		}
		if utf8.RuneCountInString(name) > domain.MaxTagNameLength {
			name = strings.TrimSpace(string([]rune(name)[:domain.MaxTagNameLength]))
		}

		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, name)
		if len(out) == max {
			break
		}
	}
	return out
}
