// Package validation compiles closed JSON payload schemas on top of
// go-playground/validator. A schema rejects keys that are not declared on
// its Go type (open maps typed map[string]any excepted), enforces required
// paths and then runs the validator tags.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a field path ("user.email") to its messages.
type Errors map[string][]string

func (e Errors) Add(path, message string) {
	if path == "" {
		path = "body"
	}
	e[path] = append(e[path], message)
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type options struct {
	required []string
	rules    map[string]validator.Func
	messages map[string]string
}

type Option func(*options)

// WithRequired lists dotted paths that must be present and non-null.
// A nested path is only checked when its parent object is present.
func WithRequired(paths ...string) Option {
	return func(o *options) { o.required = append(o.required, paths...) }
}

// WithRule registers a custom validator tag for this schema only, with the
// message reported when it fails.
func WithRule(tag string, fn validator.Func, message string) Option {
	return func(o *options) {
		o.rules[tag] = fn
		o.messages[tag] = message
	}
}

// Schema is a compiled payload schema for documents decoded into T.
type Schema[T any] struct {
	name     string
	validate *validator.Validate
	required []string
	messages map[string]string
}

// Compile builds a schema. It panics when a rule cannot be registered, it is
// meant to run once at startup.
func Compile[T any](name string, opts ...Option) *Schema[T] {
	o := &options{rules: map[string]validator.Func{}, messages: map[string]string{}}
	for _, opt := range opts {
		opt(o)
	}

	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	for tag, fn := range o.rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validation: schema %s: register %q: %v", name, tag, err))
		}
	}

	return &Schema[T]{name: name, validate: v, required: o.required, messages: o.messages}
}

func (s *Schema[T]) Name() string { return s.name }

// Validate decodes raw into T and checks it. On failure the returned error is
// an Errors value.
func (s *Schema[T]) Validate(raw []byte) (*T, error) {
	errs := Errors{}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		errs.Add("body", "must be a JSON object")
		return nil, errs
	}

	var out T
	checkUnknown(reflect.TypeOf(out), doc, "", errs)
	checkRequired(doc, s.required, errs)

	if err := json.Unmarshal(raw, &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			errs.Add(typeErr.Field, "must be of type "+typeErr.Type.String())
		} else {
			errs.Add("body", err.Error())
		}
		return nil, errs
	}

	if err := s.validate.Struct(&out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.Add("body", err.Error())
			return nil, errs
		}
		for _, fe := range verrs {
			errs.Add(fieldPath(fe.Namespace()), s.message(fe))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &out, nil
}

func (s *Schema[T]) message(fe validator.FieldError) string {
	if msg, ok := s.messages[fe.Tag()]; ok {
		return msg
	}
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if isString {
			return "must be at least " + fe.Param() + " characters long"
		}
		return "must be at least " + fe.Param()
	case "max":
		if isString {
			return "must be at most " + fe.Param() + " characters long"
		}
		return "must be at most " + fe.Param()
	}
	return "failed on the '" + fe.Tag() + "' rule"
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func checkUnknown(t reflect.Type, value any, path string, errs Errors) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		obj, ok := value.(map[string]any)
		if !ok {
			return
		}
		fields := make(map[string]reflect.Type, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if name := jsonName(f); name != "" {
				fields[name] = f.Type
			}
		}
		for key, v := range obj {
			ft, ok := fields[key]
			if !ok {
				errs.Add(joinPath(path, key), "is not allowed")
				continue
			}
			checkUnknown(ft, v, joinPath(path, key), errs)
		}
	case reflect.Map:
		obj, ok := value.(map[string]any)
		if !ok {
			return
		}
		for key, v := range obj {
			checkUnknown(t.Elem(), v, joinPath(path, key), errs)
		}
	case reflect.Slice, reflect.Array:
		items, ok := value.([]any)
		if !ok {
			return
		}
		for i, v := range items {
			checkUnknown(t.Elem(), v, fmt.Sprintf("%s[%d]", path, i), errs)
		}
	}
}

func checkRequired(doc map[string]any, paths []string, errs Errors) {
	for _, p := range paths {
		container := doc
		key := p
		if i := strings.LastIndex(p, "."); i >= 0 {
			parent, ok := lookupObject(doc, p[:i])
			if !ok {
				continue
			}
			container, key = parent, p[i+1:]
		}
		if v, ok := container[key]; !ok || v == nil {
			errs.Add(p, "is required")
		}
	}
}

func lookupObject(doc map[string]any, path string) (map[string]any, bool) {
	current := doc
	for _, seg := range strings.Split(path, ".") {
		next, ok := current[seg].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}
