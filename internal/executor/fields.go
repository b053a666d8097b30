package executor

import (
	language "github.com/dunatron/odyssey-lift-off-part2/internal/language"
	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
)

// collectedFieldMap groups selections by response name while preserving the
// order they first appear in the query.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{index: make(map[string]int)}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
		return
	}
	cfm.index[responseName] = len(cfm.fields)
	cfm.fields = append(cfm.fields, collectedField{
		ResponseName: responseName,
		Fields:       []*language.Field{field},
	})
}

func (cfm *collectedFieldMap) orderedFields() []collectedField {
	return cfm.fields
}

func (ex *execution) collectFields(objectType *schema.Type, selectionSet language.SelectionSet) *collectedFieldMap {
	grouped := newCollectedFieldMap()
	ex.collectFieldsInto(objectType, selectionSet, grouped, make(map[string]bool))
	return grouped
}

func (ex *execution) collectFieldsInto(objectType *schema.Type, selectionSet language.SelectionSet, grouped *collectedFieldMap, visitedFragments map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !ex.shouldIncludeNode(sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			grouped.add(responseName, sel)

		case *language.InlineFragment:
			if !ex.shouldIncludeNode(sel.Directives) {
				continue
			}
			if !ex.typeConditionMatches(sel.TypeCondition, objectType) {
				continue
			}
			ex.collectFieldsInto(objectType, sel.SelectionSet, grouped, visitedFragments)

		case *language.FragmentSpread:
			if !ex.shouldIncludeNode(sel.Directives) {
				continue
			}
			if visitedFragments[sel.Name] {
				continue
			}
			visitedFragments[sel.Name] = true

			fragmentDef := ex.document.Fragments.ForName(sel.Name)
			if fragmentDef == nil {
				continue
			}
			if !ex.typeConditionMatches(fragmentDef.TypeCondition, objectType) {
				continue
			}
			if !ex.shouldIncludeNode(fragmentDef.Directives) {
				continue
			}
			ex.collectFieldsInto(objectType, fragmentDef.SelectionSet, grouped, visitedFragments)
		}
	}
}

// typeConditionMatches reports whether a fragment with the given type
// condition applies to objectType: the condition names the type itself, an
// interface it implements, or a union it belongs to.
func (ex *execution) typeConditionMatches(condition string, objectType *schema.Type) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	for _, iface := range objectType.Interfaces {
		if iface == condition {
			return true
		}
	}
	if cond := ex.schema.Types[condition]; cond != nil {
		for _, pt := range cond.PossibleTypes {
			if pt == objectType.Name {
				return true
			}
		}
	}
	return false
}

func (ex *execution) shouldIncludeNode(directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := ex.directiveArgument(skip, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := ex.directiveArgument(include, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func (ex *execution) directiveArgument(directive *language.Directive, argName string) any {
	for _, arg := range directive.Arguments {
		if arg.Name == argName {
			return valueFromASTWithVars(arg.Value, ex.variableValues)
		}
	}
	return nil
}
