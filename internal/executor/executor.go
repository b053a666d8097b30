package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/dunatron/odyssey-lift-off-part2/internal/language"
	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
)

// Executor executes parsed operations against a schema, dispatching field
// resolution to a Runtime.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// execution holds the mutable state for one operation.
type execution struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	ctx            context.Context
	errors         []GraphQLError

	// pending async fields collected while expanding the current depth
	pending []pendingField
	nextID  uint64

	// response-path prefixes nullified by Non-Null propagation; tasks under
	// a nullified prefix are dropped instead of flushed
	nullified map[string]struct{}
}

// pendingField is one deferred async field resolution awaiting a batch flush.
type pendingField struct {
	id        uint64
	task      AsyncResolveTask
	path      Path
	fieldType *schema.TypeRef
	fields    []*language.Field
}

// asyncPlaceholder marks a slot in the response tree that a flushed batch
// result will fill in later.
type asyncPlaceholder struct{}

func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := selectOperation(document, operationName)
	if operation == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	coerced, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	ex := &execution{
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		variableValues: coerced,
		ctx:            ctx,
		nextID:         1,
		nullified:      make(map[string]struct{}),
	}

	responseRoot := make(map[string]any)
	for k, v := range ex.executeSelectionSet(rootType, operation.SelectionSet, initialValue, Path{}) {
		responseRoot[k] = v
	}

	// Depth-wise batch loop: flush everything collected at this depth, write
	// completions (which may queue the next depth), repeat.
	for len(ex.pending) > 0 {
		flushed, results := ex.flush()
		for i, r := range results {
			ex.completeAsyncField(flushed[i], r, responseRoot)
		}
	}

	return &ExecutionResult{Data: responseRoot, Errors: ex.errors}
}

// executeSelectionSet expands a selection set synchronously; async fields are
// queued and their slots filled with placeholders.
func (ex *execution) executeSelectionSet(objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	grouped := ex.collectFields(objectType, selectionSet)
	resultMap := make(map[string]any)

	for _, cf := range grouped.orderedFields() {
		fieldPath := appendPath(path, cf.ResponseName)
		fieldResult := ex.executeFieldGroup(objectType, objectValue, cf.Fields, fieldPath)

		if cf.Fields[0].Name == "__typename" {
			resultMap[cf.ResponseName] = fieldResult
			continue
		}

		fieldDef := objectType.Field(cf.Fields[0].Name)
		if fieldDef == nil {
			// Unknown field; error already recorded in executeFieldGroup
			continue
		}

		if schema.IsNonNull(fieldDef.Type) && isNullish(fieldResult) {
			if len(path) > 0 {
				return nil
			}
			// Root level: keep going but write nil
			resultMap[cf.ResponseName] = nil
			continue
		}

		if isNullish(fieldResult) {
			resultMap[cf.ResponseName] = nil
		} else {
			resultMap[cf.ResponseName] = fieldResult
		}
	}

	return resultMap
}

func (ex *execution) executeFieldGroup(objectType *schema.Type, objectValue any, fields []*language.Field, path Path) any {
	field := fields[0]

	if field.Name == "__typename" {
		return objectType.Name
	}

	fieldDef := objectType.Field(field.Name)
	if fieldDef == nil {
		ex.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", field.Name, objectType.Name), path)
		return nil
	}

	args := coerceArgumentValues(ex, fieldDef, field.Arguments, path)

	if !fieldDef.Async {
		value, err := ex.runtime.ResolveSync(ex.ctx, objectType.Name, field.Name, objectValue, args)
		if err != nil {
			ex.addError(err.Error(), path)
			return nil
		}
		return ex.completeValue(fieldDef.Type, fields, value, path)
	}

	pf := pendingField{
		id: ex.nextID,
		task: AsyncResolveTask{
			ObjectType: objectType.Name,
			Field:      field.Name,
			Source:     objectValue,
			Args:       args,
		},
		path:      path,
		fieldType: fieldDef.Type,
		fields:    fields,
	}
	ex.nextID++
	ex.pending = append(ex.pending, pf)
	return asyncPlaceholder{}
}

// flush sends the current depth's live pending fields to the runtime. Fields
// under a nullified prefix are dropped without resolving.
func (ex *execution) flush() ([]pendingField, []AsyncResolveResult) {
	live := make([]pendingField, 0, len(ex.pending))
	for _, pf := range ex.pending {
		if ex.hasNullifiedPrefix(pf.path) {
			continue
		}
		live = append(live, pf)
	}
	ex.pending = nil

	tasks := make([]AsyncResolveTask, len(live))
	for i, pf := range live {
		tasks[i] = pf.task
	}
	return live, ex.runtime.BatchResolveAsync(ex.ctx, tasks)
}

// completeAsyncField writes one flushed result into the response tree,
// applying Non-Null propagation and prefix pruning.
func (ex *execution) completeAsyncField(pf pendingField, res AsyncResolveResult, responseRoot map[string]any) {
	if ex.hasNullifiedPrefix(pf.path) {
		return
	}

	if res.Error != nil {
		ex.addError(res.Error.Error(), pf.path)
		if schema.IsNonNull(pf.fieldType) {
			top := topLevelFieldPath(pf.path)
			setValueAtPath(responseRoot, top, nil)
			ex.markNullified(top)
			return
		}
		setValueAtPath(responseRoot, pf.path, nil)
		return
	}

	completed := ex.completeValue(pf.fieldType, pf.fields, res.Value, pf.path)

	if schema.IsNonNull(pf.fieldType) && isNullish(completed) {
		top := topLevelFieldPath(pf.path)
		setValueAtPath(responseRoot, top, nil)
		ex.markNullified(top)
		return
	}

	if isNullish(completed) {
		setValueAtPath(responseRoot, pf.path, nil)
	} else {
		setValueAtPath(responseRoot, pf.path, completed)
	}
}

func (ex *execution) completeValue(fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !ex.hasErrorAtPath(path) {
				ex.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			}
			return nil
		}
		completed := ex.completeValue(schema.Unwrap(fieldType), fields, result, path)
		if isNullish(completed) {
			// Error already recorded at the original path; propagate only
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return ex.completeListValue(fieldType, fields, result, path)
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := ex.schema.Types[namedType]
	if typeObj == nil {
		ex.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := ex.runtime.SerializeLeafValue(ex.ctx, namedType, result)
		if err != nil {
			ex.addError(err.Error(), path)
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return ex.executeSelectionSet(typeObj, mergeSelectionSets(fields), result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return ex.completeAbstractValue(namedType, fields, result, path)
	default:
		ex.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path)
		return nil
	}
}

func (ex *execution) completeListValue(listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			ex.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		v := ex.completeValue(inner, fields, item, appendPath(path, i))
		if schema.IsNonNull(inner) && isNullish(v) {
			// Null propagates to the list field; error already recorded
			return nil
		}
		completed[i] = v
	}
	return completed
}

func (ex *execution) completeAbstractValue(abstractTypeName string, fields []*language.Field, result any, path Path) any {
	typeName, err := ex.runtime.ResolveType(ex.ctx, abstractTypeName, result)
	if err != nil {
		ex.addError(err.Error(), path)
		return nil
	}
	objectType := ex.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		ex.addError(fmt.Sprintf("abstract type %s must resolve to an object type, got %q", abstractTypeName, typeName), path)
		return nil
	}
	return ex.executeSelectionSet(objectType, mergeSelectionSets(fields), result, path)
}

// ----------------- state helpers -----------------

func (ex *execution) addError(message string, path Path) {
	ex.errors = append(ex.errors, GraphQLError{Message: message, Path: path})
}

func (ex *execution) hasErrorAtPath(path Path) bool {
	for _, err := range ex.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

func (ex *execution) markNullified(p Path) {
	if key := pathToString(p); key != "" {
		ex.nullified[key] = struct{}{}
	}
}

func (ex *execution) hasNullifiedPrefix(p Path) bool {
	if len(ex.nullified) == 0 {
		return false
	}
	cur := Path{}
	for _, elem := range p {
		cur = append(cur, elem)
		if _, ok := ex.nullified[pathToString(cur)]; ok {
			return true
		}
	}
	return false
}

// ----------------- path helpers -----------------

func appendPath(path Path, elem PathElement) Path {
	out := make(Path, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		if i > 0 {
			result += "."
		}
		switch v := elem.(type) {
		case string:
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}

func topLevelFieldPath(p Path) Path {
	for _, elem := range p {
		if name, ok := elem.(string); ok {
			return Path{name}
		}
	}
	return Path{}
}

// setValueAtPath writes value into the response tree at path, materializing
// intermediate maps and padding list slots as needed.
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		if key, ok := path[0].(string); ok {
			responseRoot[key] = value
		}
		return
	}
	current := any(responseRoot)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			next, exists := m[e]
			if !exists {
				next = make(map[string]any)
				m[e] = next
			}
			current = next
		case int:
			slice, ok := current.([]any)
			if !ok {
				return
			}
			for len(slice) <= e {
				slice = append(slice, nil)
			}
			if slice[e] == nil {
				slice[e] = make(map[string]any)
			}
			current = slice[e]
		}
	}
	switch fe := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok {
			for len(slice) <= fe {
				slice = append(slice, nil)
			}
			slice[fe] = value
		}
	}
}

// ----------------- document helpers -----------------

func selectOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(document.Operations) == 1 {
		return document.Operations[0]
	}
	return document.Operations.ForName(operationName)
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish reports true for nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
