package pulsar

import (
	"fmt"
	"strings"

	"github.com/apache/pulsar-client-go/pulsaradmin/pkg/utils"
	"github.com/buger/jsonparser"
	"github.com/longkeyy/go-datasource/common/element"
)

// 原始类型的 schema 只有一个值字段
var primitiveTypes = map[string]element.FieldType{
	"STRING":    element.TypeString,
	"BYTES":     element.TypeBytes,
	"BOOLEAN":   element.TypeBoolean,
	"INT8":      element.TypeTinyInt,
	"INT16":     element.TypeSmallInt,
	"INT32":     element.TypeInt,
	"INT64":     element.TypeBigInt,
	"FLOAT":     element.TypeFloat,
	"DOUBLE":    element.TypeDouble,
	"DATE":      element.TypeDate,
	"TIME":      element.TypeTime,
	"TIMESTAMP": element.TypeTimestamp,
}

// schemaFields AVRO/JSON 取 record 的字段，原始类型返回单个 value 字段
func schemaFields(info *utils.SchemaInfo) ([]element.TableField, error) {
	if info == nil {
		return nil, fmt.Errorf("topic has no schema")
	}
	typ := strings.ToUpper(info.Type)
	if ft, ok := primitiveTypes[typ]; ok {
		return []element.TableField{element.NewTableField("value", ft)}, nil
	}
	switch typ {
	case "AVRO", "JSON":
		return parseAvroRecord(info.Schema)
	default:
		return nil, fmt.Errorf("schema type '%s' is not supported", info.Type)
	}
}

func parseAvroRecord(data []byte) ([]element.TableField, error) {
	var fields []element.TableField
	var fieldErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if fieldErr != nil {
			return
		}
		if dataType != jsonparser.Object {
			fieldErr = fmt.Errorf("avro field must be an object, got %s", dataType)
			return
		}
		name, err := jsonparser.GetString(value, "name")
		if err != nil {
			fieldErr = fmt.Errorf("avro field without name: %v", err)
			return
		}
		raw, rawType, _, err := jsonparser.Get(value, "type")
		if err != nil {
			fieldErr = fmt.Errorf("avro field '%s' without type: %v", name, err)
			return
		}
		typeName, nullable := avroType(raw, rawType)
		field := element.TableField{Name: name, Type: typeName, Nullable: nullable}
		doc, _ := jsonparser.GetString(value, "doc")
		fields = append(fields, field.WithComment(doc))
	}, "fields")
	if err != nil {
		return nil, fmt.Errorf("invalid avro record schema: %w", err)
	}
	if fieldErr != nil {
		return nil, fieldErr
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("avro record schema has no fields")
	}
	return fields, nil
}

// avroType 联合类型中含 null 时可空，类型取第一个非 null 分支
func avroType(raw []byte, dataType jsonparser.ValueType) (string, bool) {
	switch dataType {
	case jsonparser.String:
		s, _ := jsonparser.ParseString(raw)
		return s, s == "null"
	case jsonparser.Object:
		if logical, err := jsonparser.GetString(raw, "logicalType"); err == nil {
			return logical, false
		}
		s, _ := jsonparser.GetString(raw, "type")
		return s, false
	case jsonparser.Array:
		var typeName string
		nullable := false
		_, _ = jsonparser.ArrayEach(raw, func(v []byte, vt jsonparser.ValueType, _ int, _ error) {
			name, _ := avroType(v, vt)
			if name == "null" {
				nullable = true
				return
			}
			if typeName == "" {
				typeName = name
			}
		})
		return typeName, nullable
	}
	return "", true
}
