package core

import (
	"bytes"
	"encoding/json"
)

// Change is the before/after pair for one field.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// FieldChange is a Change tagged with its field.
type FieldChange struct {
	Field Field
	Change
}

// Diff is an ordered field-level change set. It marshals to a JSON object
// keyed by field name, in canonical field order.
type Diff []FieldChange

// Empty reports whether nothing changed.
func (d Diff) Empty() bool { return len(d) == 0 }

// Get returns the change recorded for f.
func (d Diff) Get(f Field) (Change, bool) {
	for _, fc := range d {
		if fc.Field == f {
			return fc.Change, true
		}
	}
	return Change{}, false
}

func (d Diff) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fc := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(fc.Field))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fc.Change)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ComputeDiff compares only the fields supplied in changes against old.
// Supplied fields whose value is unchanged are omitted, so an update that
// repeats the stored values yields an empty diff.
func ComputeDiff(old LeadFields, changes Changes) Diff {
	var d Diff
	for _, f := range changes.Set.Fields() {
		if fieldEqual(f, &old, &changes.Values) {
			continue
		}
		d = append(d, FieldChange{
			Field:  f,
			Change: Change{Old: old.Value(f), New: changes.Values.Value(f)},
		})
	}
	return d
}

// snapshotPayload is the history body for created and imported leads.
type snapshotPayload struct {
	Action string `json:"action"`
	Data   Lead   `json:"data"`
}

func snapshotDiff(action string, l Lead) (json.RawMessage, error) {
	return json.Marshal(snapshotPayload{Action: action, Data: l})
}
