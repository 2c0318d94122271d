package schema

import "github.com/invopop/jsonschema"

// jsonSchemaType maps a compiled field's kind to the JSON Schema type
// keyword used when rendering the schema for prompt embedding.
func jsonSchemaType(k Kind) string {
	switch k {
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "array"
	default:
		return "string"
	}
}

// RenderJSONSchema builds the `additionalProperties: false` JSON Schema
// object attached to every adjudicator request as llm.Request.Schema, using
// github.com/invopop/jsonschema's Schema type as the rendering vehicle
// (the pack's own structured-output tooling builds schemas this way
// rather than hand-rolling the object graph).
func (cs *CompiledSchema) RenderJSONSchema() *jsonschema.Schema {
	root := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
		Required:   make([]string, 0, len(cs.Fields)),
		// additionalProperties: false, expressed the way the JSON Schema
		// spec represents it for a *Schema-typed field: "not {}" matches
		// nothing, so no additional property validates.
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
	for _, f := range cs.Fields {
		prop := &jsonschema.Schema{
			Type:        jsonSchemaType(f.Kind),
			Description: f.Description,
		}
		if f.Kind == KindList {
			prop.Items = &jsonschema.Schema{Type: "string"}
		}
		root.Properties.Set(f.Name, prop)
		root.Required = append(root.Required, f.Name)
	}
	return root
}
