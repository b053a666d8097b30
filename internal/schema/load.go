package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"
)

// BuildFromSDL loads and validates an SDL document and converts it into an
// executable Schema. Field Async flags are left false; the resolver registry
// marks the fields it binds when it is checked against the schema.
func BuildFromSDL(sdl string) (*Schema, error) {
	src, err := validator.LoadSchema(validator.Prelude, &ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return convert(src), nil
}

func convert(src *ast.Schema) *Schema {
	s := NewSchema(src.Description)
	if src.Query != nil {
		s.SetQueryType(src.Query.Name)
	}
	if src.Mutation != nil {
		s.SetMutationType(src.Mutation.Name)
	}
	if src.Subscription != nil {
		s.SetSubscriptionType(src.Subscription.Name)
	}
	for name, def := range src.Types {
		if isIntrospectionName(name) {
			continue
		}
		s.AddType(convertType(def, src))
	}
	for name, def := range src.Directives {
		if isIntrospectionName(name) {
			continue
		}
		s.AddDirective(convertDirective(def))
	}
	return s
}

func convertType(def *ast.Definition, src *ast.Schema) *Type {
	t := NewType(def.Name, kindOf(def.Kind), def.Description)
	for _, iface := range def.Interfaces {
		t.AddInterface(iface)
	}
	switch def.Kind {
	case ast.Object, ast.Interface:
		for _, f := range def.Fields {
			if isIntrospectionName(f.Name) {
				continue
			}
			t.AddField(convertField(f))
		}
	case ast.Enum:
		for _, v := range def.EnumValues {
			t.AddEnumValue(NewEnumValue(v.Name, v.Description))
		}
	case ast.InputObject:
		for _, f := range def.Fields {
			t.AddInputField(convertInputValue(f.Name, f.Description, f.Type, f.DefaultValue))
		}
	}
	if def.Kind == ast.Interface || def.Kind == ast.Union {
		for _, pt := range src.PossibleTypes[def.Name] {
			t.AddPossibleType(pt.Name)
		}
	}
	return t
}

func convertField(f *ast.FieldDefinition) *Field {
	out := NewField(f.Name, f.Description, convertTypeRef(f.Type))
	for _, a := range f.Arguments {
		out.AddArgument(convertInputValue(a.Name, a.Description, a.Type, a.DefaultValue))
	}
	return out
}

func convertInputValue(name, description string, t *ast.Type, def *ast.Value) *InputValue {
	v := NewInputValue(name, description, convertTypeRef(t))
	if def != nil {
		v.SetDefault(goValue(def))
	}
	return v
}

func convertDirective(def *ast.DirectiveDefinition) *Directive {
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, a := range def.Arguments {
		d.AddArgument(convertInputValue(a.Name, a.Description, a.Type, a.DefaultValue))
	}
	return d
}

func convertTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return NonNullType(convertTypeRef(&inner))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	return ListType(convertTypeRef(t.Elem))
}

func kindOf(k ast.DefinitionKind) TypeKind {
	switch k {
	case ast.Object:
		return TypeKindObject
	case ast.Interface:
		return TypeKindInterface
	case ast.Union:
		return TypeKindUnion
	case ast.Enum:
		return TypeKindEnum
	case ast.InputObject:
		return TypeKindInputObject
	default:
		return TypeKindScalar
	}
}

// goValue converts an SDL literal (default values) into a Go value.
func goValue(v *ast.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case ast.IntValue:
		var n int
		fmt.Sscanf(v.Raw, "%d", &n)
		return n
	case ast.FloatValue:
		var f float64
		fmt.Sscanf(v.Raw, "%g", &f)
		return f
	case ast.StringValue, ast.BlockValue, ast.EnumValue:
		return v.Raw
	case ast.BooleanValue:
		return v.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.ListValue:
		out := make([]any, len(v.Children))
		for i, c := range v.Children {
			out[i] = goValue(c.Value)
		}
		return out
	case ast.ObjectValue:
		m := make(map[string]any)
		for _, c := range v.Children {
			m[c.Name] = goValue(c.Value)
		}
		return m
	default:
		return nil
	}
}

func isIntrospectionName(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}
