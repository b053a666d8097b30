package model

import "fmt"

// Entity describes the backing record shape behind one exposed object type:
// which properties the remote API actually returns for it. Fields that the
// schema exposes but the record does not carry must be bound to a resolver.
type Entity struct {
	Name    string
	IDField string

	fields   []string
	fieldSet map[string]struct{}
}

// NewEntity declares a backing record shape. idField must be listed in fields.
func NewEntity(name, idField string, fields ...string) *Entity {
	e := &Entity{
		Name:     name,
		IDField:  idField,
		fields:   fields,
		fieldSet: make(map[string]struct{}, len(fields)),
	}
	for _, f := range fields {
		e.fieldSet[f] = struct{}{}
	}
	return e
}

// HasField reports whether the backing record declares the property.
func (e *Entity) HasField(name string) bool {
	_, ok := e.fieldSet[name]
	return ok
}

// Fields returns the declared property names in declaration order.
func (e *Entity) Fields() []string { return e.fields }

// Registry holds the entity declarations for every exposed object type that
// is materialized from backing records.
type Registry struct {
	entities map[string]*Entity
}

func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Register adds an entity declaration. Registering the same name twice is a
// wiring defect and fails.
func (r *Registry) Register(e *Entity) error {
	if _, exists := r.entities[e.Name]; exists {
		return fmt.Errorf("model: entity %q already registered", e.Name)
	}
	r.entities[e.Name] = e
	return nil
}

// MustRegister is Register for static wiring code.
func (r *Registry) MustRegister(e *Entity) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Entity returns the declaration for name, or nil.
func (r *Registry) Entity(name string) *Entity { return r.entities[name] }

// HasField reports whether the named entity declares the property.
func (r *Registry) HasField(entity, field string) bool {
	e := r.entities[entity]
	return e != nil && e.HasField(field)
}

// Record is one backing data record, tagged with the entity it materializes.
// Resolvers read from Data and never mutate it.
type Record struct {
	Entity string
	Data   map[string]any
}

// NewRecord tags decoded record data with its entity name.
func NewRecord(entity string, data map[string]any) *Record {
	return &Record{Entity: entity, Data: data}
}

// Get returns the named property, or nil when the record does not carry it.
func (r *Record) Get(field string) any {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data[field]
}

// ID returns the record's identifier under the given id field as a string,
// or "" when absent.
func (r *Record) ID(idField string) string {
	s, _ := r.Get(idField).(string)
	return s
}
