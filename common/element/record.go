package element

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrInvalidFieldMap 字段映射JSON格式错误
var ErrInvalidFieldMap = errors.New("invalid field map")

// ParseFieldMap parses a JSON object of {"fieldName": "type"} into table fields,
// preserving the key order of the document. Every field is nullable and none is
// tagged as primary key.
func ParseFieldMap(raw string) ([]TableField, error) {
	data := []byte(raw)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidFieldMap)
	}

	fields := []TableField{}
	err := jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.String {
			return fmt.Errorf("%w: type of field %q must be a string, got %s", ErrInvalidFieldMap, key, dataType)
		}
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return fmt.Errorf("%w: field name: %v", ErrInvalidFieldMap, err)
		}
		typeName, err := jsonparser.ParseString(value)
		if err != nil {
			return fmt.Errorf("%w: type of field %q: %v", ErrInvalidFieldMap, name, err)
		}
		fields = append(fields, TableField{Name: name, Type: typeName, Nullable: true})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidFieldMap) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFieldMap, err)
	}
	return fields, nil
}

// ParseSchema parses the SeaTunnel-style schema option
// {"fields": {"name": "type", ...}} used by file based sources.
func ParseSchema(raw string) ([]TableField, error) {
	data := []byte(raw)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidFieldMap)
	}
	inner, dataType, _, err := jsonparser.Get(data, "fields")
	if err != nil || dataType != jsonparser.Object {
		return nil, fmt.Errorf("%w: schema must contain a \"fields\" object", ErrInvalidFieldMap)
	}
	return ParseFieldMap(string(inner))
}
