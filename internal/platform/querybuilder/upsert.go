package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// UpsertModel builds an insert-or-update statement keyed on the natural key
// columns. Non-key columns are overwritten from EXCLUDED on conflict
// (last-writer-wins) and the statement reports which branch fired:
//
//	INSERT INTO t (k, a, b) VALUES ($1, $2, $3)
//	ON CONFLICT (k) DO UPDATE SET a = EXCLUDED.a, b = EXCLUDED.b,
//	  updated_at = NOW()
//	RETURNING id, (xmax = 0) AS inserted
//
// The model's db-tagged fields supply columns and values. Every key column
// must be present among the tagged fields.
func UpsertModel(table string, keyColumns []string, model any) (string, []any, error) {
	return UpsertModelWhere(table, keyColumns, "", model)
}

// UpsertModelWhere is UpsertModel with a conflict-target predicate. A partial
// unique index is only picked as the conflict arbiter when the target repeats
// the index predicate, so keys backed by one must pass it here:
//
//	ON CONFLICT (external_id) WHERE external_id IS NOT NULL DO UPDATE ...
func UpsertModelWhere(table string, keyColumns []string, predicate string, model any) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, fmt.Errorf("upsert table is required")
	}
	if len(keyColumns) == 0 {
		return "", nil, fmt.Errorf("upsert natural key columns are required")
	}

	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}

	isKey := make(map[string]bool, len(keyColumns))
	for _, key := range keyColumns {
		isKey[key] = true
	}
	present := make(map[string]bool, len(cols))
	for _, col := range cols {
		present[col] = true
	}
	for _, key := range keyColumns {
		if !present[key] {
			return "", nil, fmt.Errorf("upsert key column %q is not a db-tagged field", key)
		}
	}
	// A NULL in a natural-key column makes the uniqueness constraint
	// undefined; reject before touching storage.
	for i, col := range cols {
		if !isKey[col] {
			continue
		}
		if isNilValue(vals[i]) {
			return "", nil, fmt.Errorf("upsert key column %q is nil", col)
		}
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(cols, ", "))
	buf.WriteString(") VALUES (")
	for i := range vals {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(placeholder(i + 1))
	}
	buf.WriteString(") ON CONFLICT (")
	buf.WriteString(strings.Join(keyColumns, ", "))
	buf.WriteString(")")
	if predicate = strings.TrimSpace(predicate); predicate != "" {
		buf.WriteString(" WHERE ")
		buf.WriteString(predicate)
	}
	buf.WriteString(" DO UPDATE SET ")

	wrote := false
	for _, col := range cols {
		if isKey[col] {
			continue
		}
		if wrote {
			buf.WriteString(", ")
		}
		buf.WriteString(col)
		buf.WriteString(" = EXCLUDED.")
		buf.WriteString(col)
		wrote = true
	}
	if wrote {
		buf.WriteString(", updated_at = NOW()")
	} else {
		// Key-only tables still need a no-op update so RETURNING fires.
		buf.WriteString("updated_at = NOW()")
	}
	buf.WriteString(" RETURNING id, (xmax = 0) AS inserted")

	return buf.String(), vals, nil
}

// InsertModel builds a plain insert from the model's db-tagged fields.
func InsertModel(table string, model any) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}

	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(cols, ", "))
	buf.WriteString(") VALUES (")
	for i := range vals {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(placeholder(i + 1))
	}
	buf.WriteString(")")

	return buf.String(), vals, nil
}

// InsertIgnoreModel builds an idempotent insert for membership-style tables:
// a conflict on the composite key is silently skipped.
func InsertIgnoreModel(table string, conflictColumns []string, model any) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(conflictColumns) == 0 {
		return "", nil, fmt.Errorf("insert conflict columns are required")
	}

	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(cols, ", "))
	buf.WriteString(") VALUES (")
	for i := range vals {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(placeholder(i + 1))
	}
	buf.WriteString(") ON CONFLICT (")
	buf.WriteString(strings.Join(conflictColumns, ", "))
	buf.WriteString(") DO NOTHING")

	return buf.String(), vals, nil
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	var cols []string
	var vals []any
	collectModelFields(value, &cols, &vals)

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

func collectModelFields(value reflect.Value, cols *[]string, vals *[]any) {
	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		tag := strings.TrimSpace(field.Tag.Get("db"))
		if tag == "" || tag == "-" {
			// Untagged embedded structs contribute their own fields.
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				collectModelFields(value.Field(i), cols, vals)
			}
			continue
		}
		col := strings.TrimSpace(strings.Split(tag, ",")[0])
		if col == "" || col == "-" {
			continue
		}
		*cols = append(*cols, col)
		*vals = append(*vals, value.Field(i).Interface())
	}
}
