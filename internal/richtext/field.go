// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package richtext

import (
	"bytes"
	"encoding/json"
)

// FieldKind tells which shape a text-bearing CMS field arrived in.
type FieldKind int

const (
	// FieldEmpty is a null, missing or unrecognized value.
	FieldEmpty FieldKind = iota
	// FieldPlain is a plain JSON string.
	FieldPlain
	// FieldRuns is an array of rich text blocks (possibly empty).
	FieldRuns
)

// String returns the kind name.
func (k FieldKind) String() string {
	switch k {
	case FieldPlain:
		return "plain"
	case FieldRuns:
		return "runs"
	default:
		return "empty"
	}
}

// Field holds a text-bearing CMS field that is either a plain string or a
// sequence of rich text runs. Decoding never fails on an unexpected shape;
// such values decode as FieldEmpty.
type Field struct {
	kind  FieldKind
	plain string
	runs  RichText
}

// PlainField returns a Field holding a plain string.
func PlainField(s string) Field {
	return Field{kind: FieldPlain, plain: s}
}

// RunsField returns a Field holding rich text runs.
func RunsField(blocks ...Block) Field {
	return Field{kind: FieldRuns, runs: RichText(blocks)}
}

// Kind reports the shape of the field.
func (f Field) Kind() FieldKind { return f.kind }

// Plain returns the plain string value; empty unless Kind is FieldPlain.
func (f Field) Plain() string { return f.plain }

// Runs returns the runs; nil unless Kind is FieldRuns.
func (f Field) Runs() RichText { return f.runs }

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(data []byte) error {
	*f = Field{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = PlainField(s)
		}
	case '[':
		var rt RichText
		if err := json.Unmarshal(data, &rt); err == nil {
			*f = RunsField(rt...)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case FieldPlain:
		return json.Marshal(f.plain)
	case FieldRuns:
		if f.runs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(f.runs)
	default:
		return []byte("null"), nil
	}
}
