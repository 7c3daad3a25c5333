package disclosure

import (
	"sort"

	"github.com/pkg/errors"

	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
)

// Level selects how much of a credential's subject the holder is willing to share.
// The preset levels carry fixed field lists that grow monotonically, so minimal is
// always a subset of standard, and standard of full. Custom carries an explicit
// holder-chosen field set instead of a preset.
type Level string

const (
	Minimal  Level = "minimal"
	Standard Level = "standard"
	Full     Level = "full"
	Custom   Level = "custom"
)

// ErrInvalidLevel is returned when preset fields are requested for a level that has
// no preset table entry, including custom.
var ErrInvalidLevel = errors.New("invalid disclosure level")

// preset levels in increasing order of content
var presetOrder = []Level{Minimal, Standard, Full}

var presetFields = map[Level][]string{
	Minimal:  {"firstName"},
	Standard: {"firstName", "lastName"},
	Full:     {"firstName", "lastName", "dateOfBirth", "nationality", "uniqueId"},
}

// Result describes one computed disclosure: the fields actually shared, the level
// those fields correspond to, and the redacted subject view containing exactly the
// shared fields, never more.
type Result struct {
	Fields       []string       `json:"fields"`
	Level        Level          `json:"level"`
	RedactedView map[string]any `json:"redactedView"`
}

// FieldsForLevel returns a copy of the preset field list for a level. Custom has no
// preset and is a contract violation here, as is any unknown level.
func FieldsForLevel(level Level) ([]string, error) {
	fields, ok := presetFields[level]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidLevel, "no preset fields for level: %s", level)
	}
	return append([]string(nil), fields...), nil
}

// LevelForFields maps a field selection back to a level: the smallest preset whose
// field list covers the selection restricted to the subject's keys, checked minimal
// through full. A selection no preset covers is custom. A selection exactly equal to
// a preset therefore reports that preset, which keeps the level-to-fields round trip
// idempotent.
func LevelForFields(fields, subjectKeys []string) Level {
	effective := intersect(fields, subjectKeys)
	for _, level := range presetOrder {
		if covers(presetFields[level], effective) {
			return level
		}
	}
	return Custom
}

// Apply computes the redacted view: the subject restricted to the requested fields,
// values untouched. Disclosure is field granular, so a field is either shared whole
// or not at all. Reserved keys never appear in a view, even when explicitly requested.
// An empty selection is legal and yields an empty view, meaning nothing is shared.
func Apply(subject map[string]any, fields []string) map[string]any {
	view := make(map[string]any, len(fields))
	for _, field := range fields {
		if credint.IsReservedKey(field) {
			continue
		}
		if value, ok := subject[field]; ok {
			view[field] = value
		}
	}
	return view
}

// Disclose computes the full disclosure result for a subject. A preset level supplies
// its field list; custom, or an absent level, uses the explicit field selection.
func Disclose(subject map[string]any, level Level, fields []string) (*Result, error) {
	if level != "" && level != Custom {
		levelFields, err := FieldsForLevel(level)
		if err != nil {
			return nil, err
		}
		fields = levelFields
	}

	view := Apply(subject, fields)
	disclosed := make([]string, 0, len(view))
	for field := range view {
		disclosed = append(disclosed, field)
	}
	sort.Strings(disclosed)

	subjectKeys := make([]string, 0, len(subject))
	for key := range subject {
		subjectKeys = append(subjectKeys, key)
	}

	return &Result{
		Fields:       disclosed,
		Level:        LevelForFields(fields, subjectKeys),
		RedactedView: view,
	}, nil
}

func intersect(fields, subjectKeys []string) []string {
	keys := make(map[string]struct{}, len(subjectKeys))
	for _, k := range subjectKeys {
		keys[k] = struct{}{}
	}
	effective := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := keys[f]; !ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		effective = append(effective, f)
	}
	return effective
}

func covers(preset, fields []string) bool {
	presetSet := make(map[string]struct{}, len(preset))
	for _, f := range preset {
		presetSet[f] = struct{}{}
	}
	for _, f := range fields {
		if _, ok := presetSet[f]; !ok {
			return false
		}
	}
	return true
}
