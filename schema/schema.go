// Package schema compiles caller-supplied field maps (exclusion criteria
// and data-extraction fields) into a data-driven CompiledSchema, the
// record descriptor consumed by the adjudicator (C7) to build prompts and
// validate LLM output. It deliberately avoids runtime type generation —
// see SPEC_FULL.md's Design Notes — in favor of a plain ordered field
// list plus a generic coercing decoder.
package schema

import "fmt"

// Kind is the set of field types a compiled schema supports.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindList    Kind = "list"
)

// FieldSpec is the caller-supplied description of one field, before
// compilation.
type FieldSpec struct {
	Kind        Kind
	Description string
}

// Origin marks which of the two caller-supplied schemas a merged Field
// came from. Merge forces every exclusion field to KindBoolean, but
// extraction fields may legally be KindBoolean too (spec §3) — Origin,
// not Kind, is what distinguishes an exclusion verdict from an
// extraction value in the adjudicator's response.
type Origin string

const (
	OriginExclusion  Origin = "exclusion"
	OriginExtraction Origin = "extraction"
)

// Field is one entry of a CompiledSchema: the caller's field enriched
// with a fallback hint appended to its description and a type-appropriate
// default value.
type Field struct {
	Name        string
	Kind        Kind
	Description string
	Default     any
	Origin      Origin
}

// CompiledSchema is an ordered record descriptor. Order matters: prompt
// stability depends on presenting fields in the same order every time.
type CompiledSchema struct {
	Fields []Field
}

// fallbackHint and defaultValue implement the per-kind table from the
// original schema_manager.py: every kind gets a description suffix
// telling the LLM what to do when it doesn't know, and a matching
// zero-ish default that Decode substitutes when the LLM's response omits
// or mistypes the field. RenderJSONSchema does not emit it.
func fallbackHint(k Kind) string {
	switch k {
	case KindNumber:
		return " (Use -1.0 if unknown)"
	case KindInteger:
		return " (Use -1 if unknown)"
	case KindBoolean:
		return " (Must be true or false)"
	case KindList:
		return " (List of strings, empty if none)"
	default:
		return " (String, use 'N/A' if unknown)"
	}
}

func defaultValue(k Kind) any {
	switch k {
	case KindNumber:
		return -1.0
	case KindInteger:
		return -1
	case KindBoolean:
		return false
	case KindList:
		return []string{}
	default:
		return "N/A"
	}
}

// Compile builds a CompiledSchema from an ordered field-name list and its
// corresponding specs. names establishes field order since Go maps have
// none.
func Compile(names []string, specs map[string]FieldSpec) (*CompiledSchema, error) {
	cs := &CompiledSchema{Fields: make([]Field, 0, len(names))}
	for _, name := range names {
		spec, ok := specs[name]
		if !ok {
			return nil, fmt.Errorf("schema: no spec for field %q", name)
		}
		kind := spec.Kind
		if kind == "" {
			kind = KindString
		}
		cs.Fields = append(cs.Fields, Field{
			Name:        name,
			Kind:        kind,
			Description: spec.Description + fallbackHint(kind),
			Default:     defaultValue(kind),
		})
	}
	return cs, nil
}

// Merge concatenates an exclusion schema's fields (forced to boolean
// kind) with an extraction schema's fields (kept as-is), producing the
// combined descriptor the adjudicator submits in one LLM call. Either
// argument may be nil.
func Merge(exclusion, extraction *CompiledSchema) *CompiledSchema {
	combined := &CompiledSchema{}
	if exclusion != nil {
		for _, f := range exclusion.Fields {
			f.Kind = KindBoolean
			if f.Description == "" {
				f.Description = "Exclusion: " + f.Name
			}
			f.Default = defaultValue(KindBoolean)
			f.Origin = OriginExclusion
			combined.Fields = append(combined.Fields, f)
		}
	}
	if extraction != nil {
		for _, f := range extraction.Fields {
			f.Origin = OriginExtraction
			combined.Fields = append(combined.Fields, f)
		}
	}
	return combined
}

// FieldNames returns the name of every field in the schema, in schema
// order, whatever its kind or origin.
func (cs *CompiledSchema) FieldNames() []string {
	names := make([]string, len(cs.Fields))
	for i, f := range cs.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name, returning (zero Field, false) if absent.
func (cs *CompiledSchema) Field(name string) (Field, bool) {
	for _, f := range cs.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
