package utils

import (
	"fmt"
	"reflect"
)

var ColumnTag = "db"

// StructTagValues returns the column names of a struct, descending into
// embedded structs so their columns are listed inline.
func StructTagValues(input any) []string {

	targetValue := structValue(input)

	result := make([]string, 0, targetValue.NumField())
	walkColumns(targetValue, func(column string, _ reflect.Value) {
		result = append(result, column)
	})

	return result

}

// StructToMap maps column name to field value, flattening embedded structs.
func StructToMap(input any) map[string]any {

	result := make(map[string]any)

	walkColumns(structValue(input), func(column string, value reflect.Value) {
		result[column] = value.Interface()
	})

	return result

}

func structValue(input any) reflect.Value {
	value := reflect.ValueOf(input)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	return value
}

func walkColumns(value reflect.Value, fn func(column string, value reflect.Value)) {
	valueType := value.Type()

	for i := 0; i < value.NumField(); i++ {
		field := valueType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			walkColumns(value.Field(i), fn)
			continue
		}

		if field.PkgPath != "" {
			continue
		}

		tagValue := field.Tag.Get(ColumnTag)
		if tagValue == "" || tagValue == "-" {
			continue
		}

		fn(tagValue, value.Field(i))
	}
}

// OmitKeys returns a copy of m without the listed keys.
func OmitKeys(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	for _, k := range keys {
		delete(out, k)
	}

	return out
}

func ErrorWrapOrNil(err error, msg string) error {
	if err == nil {
		return nil
	}

	if msg == "" {
		return err
	}

	return fmt.Errorf("%s: %w", msg, err)

}
