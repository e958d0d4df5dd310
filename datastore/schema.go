/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/softdelete/errors"
)

// FieldType is the declared type of a schema field. Values written through a
// patch or an insert are cast to it.
type FieldType string

const (
	TypeAny      FieldType = "any"
	TypeBoolean  FieldType = "boolean"
	TypeDate     FieldType = "date"
	TypeString   FieldType = "string"
	TypeObjectID FieldType = "objectid"
	TypeUUID     FieldType = "uuid"
)

// Field declares a document field.
type Field struct {
	Name       string
	Type       FieldType
	Default    any
	HasDefault bool
	// Index asks the backend to build a lookup index on the field.
	Index bool
}

// Hook runs synchronously before a document is first persisted. Returning an
// error aborts the insert.
type Hook func(ctx context.Context, doc Document) error

// Schema is the set of declared fields and pre-persist hooks of a collection.
// Undeclared fields are stored as given.
type Schema struct {
	mu        sync.RWMutex
	idType    FieldType
	fields    map[string]Field
	order     []string
	preInsert []Hook
}

// NewSchema creates an empty schema whose identifiers have the given type.
func NewSchema(idType FieldType) *Schema {
	return &Schema{
		idType: idType,
		fields: make(map[string]Field),
	}
}

// IDType is the store's native identifier type.
func (s *Schema) IDType() FieldType {
	return s.idType
}

// Add declares a field, replacing an earlier declaration with the same name.
func (s *Schema) Add(f Field) error {
	if f.Name == "" {
		return fmt.Errorf("schema field name is required")
	}
	if f.Type == "" {
		f.Type = TypeAny
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fields[f.Name]; !exists {
		s.order = append(s.order, f.Name)
	}
	s.fields[f.Name] = f
	return nil
}

// Path returns the declared field, if any.
func (s *Schema) Path(name string) (Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// IndexedFields returns the fields with an index hint.
func (s *Schema) IndexedFields() []Field {
	var out []Field
	for _, f := range s.Fields() {
		if f.Index {
			out = append(out, f)
		}
	}
	return out
}

// PreInsert registers a hook run before each first-time persist.
func (s *Schema) PreInsert(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preInsert = append(s.preInsert, h)
}

// PrepareInsert applies defaults for absent fields, runs the pre-persist
// hooks in registration order, then casts declared fields. Backends call it
// from Insert.
func (s *Schema) PrepareInsert(ctx context.Context, doc Document) error {
	for _, f := range s.Fields() {
		if f.HasDefault && !doc.Has(f.Name) {
			doc[f.Name] = f.Default
		}
	}

	s.mu.RLock()
	hooks := append([]Hook(nil), s.preInsert...)
	s.mu.RUnlock()

	for _, h := range hooks {
		if err := h(ctx, doc); err != nil {
			return err
		}
	}

	for k, v := range doc {
		cast, err := s.Cast(k, v)
		if err != nil {
			return err
		}
		doc[k] = cast
	}
	return nil
}

// CastPatch casts the assigned values of a patch to their declared types.
func (s *Schema) CastPatch(p Patch) (Patch, error) {
	if len(p.Set) == 0 {
		return p, nil
	}
	set := make(map[string]any, len(p.Set))
	for k, v := range p.Set {
		cast, err := s.Cast(k, v)
		if err != nil {
			return Patch{}, err
		}
		set[k] = cast
	}
	return Patch{Set: set, Unset: p.Unset}, nil
}

// Cast converts v to the declared type of field. Undeclared fields and nil
// values pass through unchanged.
func (s *Schema) Cast(field string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	f, ok := s.Path(field)
	if !ok {
		return v, nil
	}
	return CastValue(f.Name, f.Type, v)
}

// CastValue converts v to typ, reporting failures as validation errors.
func CastValue(field string, typ FieldType, v any) (any, error) {
	switch typ {
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeDate:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case *time.Time:
			if t != nil {
				return *t, nil
			}
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err == nil {
				return parsed, nil
			}
		}
	case TypeString:
		switch t := v.(type) {
		case string:
			return t, nil
		case fmt.Stringer:
			return t.String(), nil
		}
	case TypeObjectID:
		switch t := v.(type) {
		case primitive.ObjectID:
			return t, nil
		case string:
			oid, err := primitive.ObjectIDFromHex(t)
			if err == nil {
				return oid, nil
			}
		}
	case TypeUUID:
		switch t := v.(type) {
		case uuid.UUID:
			return t.String(), nil
		case string:
			id, err := uuid.Parse(t)
			if err == nil {
				return id.String(), nil
			}
		}
	default:
		return v, nil
	}
	return nil, errors.NewValidationError(field, fmt.Sprintf("cannot cast %T to %s", v, typ))
}
