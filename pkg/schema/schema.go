// Package schema validates decoded JSON documents against a declared shape.
//
// Documents are expected to be decoded with json.Decoder.UseNumber so that
// integer fields can be told apart from fractional ones.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind is the JSON type a field must hold
type Kind int

const (
	String Kind = iota
	Integer
	Bool
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Bool:
		return "boolean"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field describes one member of an object
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
	NonEmpty bool // strings only

	// Items is the shape of every element when Kind is Array
	Items *Shape
	// Fields is the nested object shape when Kind is Object
	Fields []Field
}

// Shape is either a scalar kind or an object with fields
type Shape struct {
	Kind   Kind
	Fields []Field
}

// Issue is a single validation failure
type Issue struct {
	Path   string
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Reason)
}

// Result is the outcome of a validation. A Result with no issues is valid.
type Result struct {
	Issues []Issue
}

// OK reports whether the document matched the shape
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// Err returns nil for a valid result, otherwise an error listing all issues
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	msgs := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		msgs[i] = issue.String()
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Validate checks v against the object described by fields
func Validate(v interface{}, fields ...Field) Result {
	var r Result
	validateObject(&r, "$", v, fields)
	return r
}

func validateObject(r *Result, path string, v interface{}, fields []Field) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		r.add(path, "expected object, got "+typeName(v))
		return
	}
	for _, f := range fields {
		val, present := obj[f.Name]
		p := path + "." + f.Name
		if !present || val == nil {
			if !f.Optional {
				r.add(p, "required")
			}
			continue
		}
		validateValue(r, p, val, Shape{Kind: f.Kind, Fields: f.Fields}, f)
	}
}

func validateValue(r *Result, path string, v interface{}, shape Shape, f Field) {
	switch shape.Kind {
	case String:
		s, ok := v.(string)
		if !ok {
			r.add(path, "expected string, got "+typeName(v))
			return
		}
		if f.NonEmpty && s == "" {
			r.add(path, "must not be empty")
		}
	case Integer:
		n, ok := v.(json.Number)
		if !ok {
			r.add(path, "expected integer, got "+typeName(v))
			return
		}
		if _, err := n.Int64(); err != nil {
			r.add(path, "expected integer, got "+n.String())
		}
	case Bool:
		if _, ok := v.(bool); !ok {
			r.add(path, "expected boolean, got "+typeName(v))
		}
	case Array:
		items, ok := v.([]interface{})
		if !ok {
			r.add(path, "expected array, got "+typeName(v))
			return
		}
		if f.Items == nil {
			return
		}
		for i, item := range items {
			validateValue(r, fmt.Sprintf("%s[%d]", path, i), item, *f.Items, Field{})
		}
	case Object:
		validateObject(r, path, v, shape.Fields)
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func (r *Result) add(path, reason string) {
	r.Issues = append(r.Issues, Issue{Path: path, Reason: reason})
}
