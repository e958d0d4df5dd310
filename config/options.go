/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/suparena/softdelete/errors"
)

// Soft-delete field names.
const (
	FieldDeleted   = "deleted"
	FieldDeletedAt = "deletedAt"
	FieldDeletedBy = "deletedBy"
)

// Identifier types accepted for the deletedBy field. An empty value means
// the store's native identifier type.
const (
	DeletedByObjectID = "objectid"
	DeletedByUUID     = "uuid"
	DeletedByString   = "string"
)

// IndexFields selects which soft-delete fields get an index hint.
type IndexFields struct {
	Deleted   bool
	DeletedAt bool
	DeletedBy bool
}

// AllIndexFields indexes every soft-delete field.
func AllIndexFields() IndexFields {
	return IndexFields{Deleted: true, DeletedAt: true, DeletedBy: true}
}

// Options configures the soft-delete layer. It is applied once, when the
// layer is attached to a store.
type Options struct {
	// IndexFields accepts, when decoded, absent, "all", true, false or a
	// list of field names.
	IndexFields IndexFields `mapstructure:"indexFields" yaml:"indexFields"`
	// DeletedBy adds a deletedBy field recording who deleted a record.
	DeletedBy bool `mapstructure:"deletedBy" yaml:"deletedBy"`
	// DeletedByType is one of objectid, uuid or string.
	DeletedByType string `mapstructure:"deletedByType" yaml:"deletedByType"`
}

// Validate checks option values.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.DeletedByType,
			validation.In(DeletedByObjectID, DeletedByUUID, DeletedByString),
		),
	)
}

// ParseIndexFields interprets the loosely typed indexFields option.
func ParseIndexFields(v any) (IndexFields, error) {
	switch t := v.(type) {
	case nil:
		return IndexFields{}, nil
	case IndexFields:
		return t, nil
	case bool:
		if t {
			return AllIndexFields(), nil
		}
		return IndexFields{}, nil
	case string:
		if t == "all" {
			return AllIndexFields(), nil
		}
		return parseIndexFieldList([]string{t})
	case []string:
		return parseIndexFieldList(t)
	case []any:
		names := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return IndexFields{}, errors.NewValidationError("indexFields", fmt.Sprintf("unexpected list entry %v", item))
			}
			names = append(names, s)
		}
		return parseIndexFieldList(names)
	}
	return IndexFields{}, errors.NewValidationError("indexFields", fmt.Sprintf("unsupported value %T", v))
}

func parseIndexFieldList(names []string) (IndexFields, error) {
	var out IndexFields
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case FieldDeleted:
			out.Deleted = true
		case FieldDeletedAt:
			out.DeletedAt = true
		case FieldDeletedBy:
			out.DeletedBy = true
		default:
			return IndexFields{}, errors.NewValidationError("indexFields", fmt.Sprintf("unknown field %q", name))
		}
	}
	return out, nil
}

var indexFieldsType = reflect.TypeOf(IndexFields{})

func indexFieldsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != indexFieldsType {
		return data, nil
	}
	return ParseIndexFields(data)
}

// Decode builds Options from a generic map, e.g. one read from a config file.
func Decode(raw map[string]any) (Options, error) {
	var opts Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.DecodeHookFuncType(indexFieldsHook),
		ErrorUnused: true,
		Result:      &opts,
	})
	if err != nil {
		return Options{}, fmt.Errorf("failed to create options decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("failed to decode soft-delete options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// LoadYAML decodes Options from YAML.
func LoadYAML(data []byte) (Options, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Options{}, fmt.Errorf("failed to parse soft-delete options: %w", err)
	}
	return Decode(raw)
}

// LoadFile decodes Options from a YAML file.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return LoadYAML(data)
}
