package validation

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// FieldInfo describes one JSON field of a request model.
type FieldInfo struct {
	Name        string            // Go field name
	JSONName    string            // JSON member name
	Type        string            // Go type name
	Required    bool              // validate:"required" without omitempty
	Constraints map[string]string // parsed validate tag
	Description string            // doc tag
}

// Describe lists the JSON fields of the struct type of v together with their
// validation rules. Embedded structs are flattened.
func Describe(v any) []FieldInfo {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return describeType(t)
}

func describeType(t reflect.Type) []FieldInfo {
	var fields []FieldInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Tag.Get("json") == "" {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				fields = append(fields, describeType(ft)...)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}

		jsonName, omit := parseJSONTag(field)
		if jsonName == "-" {
			continue
		}

		constraints := make(map[string]string)
		parseValidateTag(field.Tag.Get("validate"), constraints)
		_, required := constraints["required"]
		_, optional := constraints["omitempty"]

		fields = append(fields, FieldInfo{
			Name:        field.Name,
			JSONName:    jsonName,
			Type:        field.Type.String(),
			Required:    required && !optional && !omit,
			Constraints: constraints,
			Description: field.Tag.Get("doc"),
		})
	}
	return fields
}

func parseJSONTag(field reflect.StructField) (name string, omit bool) {
	parts := strings.Split(field.Tag.Get("json"), ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, part := range parts[1:] {
		switch strings.TrimSpace(part) {
		case "omitempty", "omitzero":
			omit = true
		}
	}
	return name, omit
}

// parseValidateTag splits a validate tag into flags ("required") and
// key=value constraints ("min=1"). Rules after dive are skipped.
func parseValidateTag(validate string, constraints map[string]string) {
	for _, part := range strings.Split(validate, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "dive" {
			return
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			constraints[part] = "true"
			continue
		}
		constraints[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
}

// Min returns the min constraint if present
func (f FieldInfo) Min() (int, bool) { return f.intConstraint("min") }

// Max returns the max constraint if present
func (f FieldInfo) Max() (int, bool) { return f.intConstraint("max") }

func (f FieldInfo) intConstraint(key string) (int, bool) {
	raw, ok := f.Constraints[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}

// Enum returns oneof values if present
func (f FieldInfo) Enum() ([]string, bool) {
	values := strings.Fields(f.Constraints["oneof"])
	return values, len(values) > 0
}

// Rules renders the constraints as a stable, comma separated list.
func (f FieldInfo) Rules() string {
	keys := make([]string, 0, len(f.Constraints))
	for k := range f.Constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := f.Constraints[k]; v != "true" {
			parts = append(parts, k+"="+v)
		} else {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, ",")
}
