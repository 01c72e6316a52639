package tx

import (
	"fmt"
	"strconv"
)

// Field is one named, ordered field of a record.
// Scalar fields carry exactly one value; list fields carry one value per element.
type Field struct {
	Name   string
	Values []string
	List   bool
}

// Fielder is implemented by records that can be compared field by field.
type Fielder interface {
	Fields() []Field
}

// FieldDiff describes one differing field (or list element) between two records.
type FieldDiff struct {
	// Field is the field name, with an index suffix for list elements (e.g., "params[1]").
	Field string `json:"field"`

	Left  string `json:"left,omitempty"`
	Right string `json:"right,omitempty"`

	// LeftMissing/RightMissing mark list elements present on only one side.
	LeftMissing  bool `json:"left_missing,omitempty"`
	RightMissing bool `json:"right_missing,omitempty"`
}

// String renders the diff as `field: "left" != "right"`.
func (d FieldDiff) String() string {
	return fmt.Sprintf("%s: %s != %s", d.Field, renderSide(d.Left, d.LeftMissing), renderSide(d.Right, d.RightMissing))
}

func renderSide(v string, missing bool) string {
	if missing {
		return "<missing>"
	}
	return strconv.Quote(v)
}

// Diff compares two records field by field and returns every difference.
// Fields are paired by position; a field present on only one side is
// reported with the other side marked missing. Returns nil if the records
// are structurally equal.
func Diff(a, b Fielder) []FieldDiff {
	left, right := a.Fields(), b.Fields()

	var diffs []FieldDiff
	n := max(len(left), len(right))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(left):
			diffs = append(diffs, missingField(right[i], true)...)
		case i >= len(right):
			diffs = append(diffs, missingField(left[i], false)...)
		default:
			diffs = append(diffs, diffField(left[i], right[i])...)
		}
	}
	return diffs
}

func diffField(l, r Field) []FieldDiff {
	if !l.List && !r.List {
		lv, rv := scalar(l), scalar(r)
		if lv == rv {
			return nil
		}
		return []FieldDiff{{Field: l.Name, Left: lv, Right: rv}}
	}

	var diffs []FieldDiff
	n := max(len(l.Values), len(r.Values))
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s[%d]", l.Name, i)
		switch {
		case i >= len(l.Values):
			diffs = append(diffs, FieldDiff{Field: name, LeftMissing: true, Right: r.Values[i]})
		case i >= len(r.Values):
			diffs = append(diffs, FieldDiff{Field: name, Left: l.Values[i], RightMissing: true})
		case l.Values[i] != r.Values[i]:
			diffs = append(diffs, FieldDiff{Field: name, Left: l.Values[i], Right: r.Values[i]})
		}
	}
	return diffs
}

// missingField reports every value of f as present on one side only.
// leftMissing is true when f exists only on the right.
func missingField(f Field, leftMissing bool) []FieldDiff {
	if !f.List {
		if leftMissing {
			return []FieldDiff{{Field: f.Name, LeftMissing: true, Right: scalar(f)}}
		}
		return []FieldDiff{{Field: f.Name, Left: scalar(f), RightMissing: true}}
	}
	diffs := make([]FieldDiff, 0, len(f.Values))
	for i, v := range f.Values {
		d := FieldDiff{Field: fmt.Sprintf("%s[%d]", f.Name, i)}
		if leftMissing {
			d.LeftMissing, d.Right = true, v
		} else {
			d.Left, d.RightMissing = v, true
		}
		diffs = append(diffs, d)
	}
	return diffs
}

func scalar(f Field) string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[0]
}
