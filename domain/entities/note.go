package entities

// FieldSeparator joins note fields in the host's flat storage format.
const FieldSeparator = "\x1f"

// Note is a host-owned note record.
type Note struct {
	// Fields holds the field values in model order.
	Fields []string

	// Tags has set semantics: order is not significant and entries are unique.
	Tags []string

	ID int64
}

// NormalizeTags removes empty and duplicate tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
