package element

import "strings"

// FieldType 引擎无关的字段类型名
type FieldType string

const (
	TypeNull      FieldType = ""
	TypeString    FieldType = "string"
	TypeBoolean   FieldType = "boolean"
	TypeTinyInt   FieldType = "tinyint"
	TypeSmallInt  FieldType = "smallint"
	TypeInt       FieldType = "int"
	TypeBigInt    FieldType = "bigint"
	TypeFloat     FieldType = "float"
	TypeDouble    FieldType = "double"
	TypeDecimal   FieldType = "decimal"
	TypeDate      FieldType = "date"
	TypeTime      FieldType = "time"
	TypeTimestamp FieldType = "timestamp"
	TypeBytes     FieldType = "bytes"
	TypeArray     FieldType = "array"
	TypeMap       FieldType = "map"
	TypeRow       FieldType = "row"
)

// String 返回类型名
func (t FieldType) String() string {
	return string(t)
}

// TableField 表字段描述，每次schema查询临时生成
type TableField struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	PrimaryKey bool    `json:"primaryKey"`
	Comment    *string `json:"comment,omitempty"`
}

// NewTableField 创建可空、非主键字段
func NewTableField(name string, fieldType FieldType) TableField {
	return TableField{
		Name:     name,
		Type:     fieldType.String(),
		Nullable: true,
	}
}

// WithComment 设置注释，空串视为无注释
func (f TableField) WithComment(comment string) TableField {
	if comment == "" {
		f.Comment = nil
		return f
	}
	c := comment
	f.Comment = &c
	return f
}

// TagPrimaryKey 将名为primaryKey的第一个字段标记为主键，其余字段清除标记。
// 主键不在字段列表中时不标记任何字段。
func TagPrimaryKey(fields []TableField, primaryKey string) []TableField {
	tagged := false
	for i := range fields {
		fields[i].PrimaryKey = false
		if !tagged && primaryKey != "" && fields[i].Name == primaryKey {
			fields[i].PrimaryKey = true
			tagged = true
		}
	}
	return fields
}

// PrimaryKeyField 返回被标记为主键的字段名
func PrimaryKeyField(fields []TableField) (string, bool) {
	for _, f := range fields {
		if f.PrimaryKey {
			return f.Name, true
		}
	}
	return "", false
}

// ParseFieldType 将用户输入的类型名归一化，未知类型原样小写返回
func ParseFieldType(name string) FieldType {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "str", "varchar", "text", "char", "string":
		return TypeString
	case "bool", "boolean":
		return TypeBoolean
	case "integer", "int", "int32":
		return TypeInt
	case "long", "bigint", "int64":
		return TypeBigInt
	case "short", "smallint", "int16":
		return TypeSmallInt
	case "byte", "tinyint", "int8":
		return TypeTinyInt
	case "float", "real", "float32":
		return TypeFloat
	case "double", "float64":
		return TypeDouble
	case "datetime", "timestamp":
		return TypeTimestamp
	case "binary", "bytes", "blob":
		return TypeBytes
	}
	return FieldType(lower)
}
