package hostfuncs

import (
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// Record is a shaped mapping whose key order survives serialization.
type Record = orderedmap.OrderedMap[string, any]

// ShapeNote converts a note into a Record with exactly the keys id, fields and tags.
// Fields keep their order. Tags are deduplicated and sorted so repeated shaping
// of the same note yields the same sequence.
func ShapeNote(n entities.Note) *Record {
	fields := make([]string, len(n.Fields))
	copy(fields, n.Fields)

	tags := entities.NormalizeTags(n.Tags)
	sort.Strings(tags)

	rec := orderedmap.New[string, any](3)
	rec.Set("id", n.ID)
	rec.Set("fields", fields)
	rec.Set("tags", tags)
	return rec
}

// ShapeNotes shapes every note. The result is never nil.
func ShapeNotes(notes []entities.Note) []*Record {
	out := make([]*Record, 0, len(notes))
	for _, n := range notes {
		out = append(out, ShapeNote(n))
	}
	return out
}

// ShapeNoteLists shapes each list, keeping list positions.
func ShapeNoteLists(lists [][]entities.Note) [][]*Record {
	out := make([][]*Record, len(lists))
	for i, notes := range lists {
		out[i] = ShapeNotes(notes)
	}
	return out
}

// ShapeNameMap converts an id to name map into a mapping ordered by id.
// Keys are decimal strings, which is how they cross a JSON boundary anyway.
func ShapeNameMap(m map[int64]string) *orderedmap.OrderedMap[string, string] {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := orderedmap.New[string, string](len(ids))
	for _, id := range ids {
		out.Set(strconv.FormatInt(id, 10), m[id])
	}
	return out
}

// ShapePreviews orders card previews by template name.
func ShapePreviews(m map[string]entities.CardPreview) *orderedmap.OrderedMap[string, entities.CardPreview] {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := orderedmap.New[string, entities.CardPreview](len(names))
	for _, name := range names {
		out.Set(name, m[name])
	}
	return out
}
