package mongodb

import (
	"github.com/longkeyy/go-datasource/common/element"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type inferred struct {
	name     string
	typ      element.FieldType
	seen     int
	nullable bool
}

// InferFields 按首次出现顺序合并文档的键。
// 部分文档缺失或为 null 的键可空；只出现过 null 的键类型为空；类型冲突时退化为 string。
// _id 标记为主键。
func InferFields(docs []bson.D) []element.TableField {
	var order []*inferred
	index := make(map[string]*inferred)

	for _, doc := range docs {
		for _, e := range doc {
			f, ok := index[e.Key]
			if !ok {
				f = &inferred{name: e.Key, typ: element.TypeNull}
				index[e.Key] = f
				order = append(order, f)
			}
			f.seen++

			t := valueType(e.Value)
			switch {
			case t == element.TypeNull:
				f.nullable = true
			case f.typ == element.TypeNull:
				f.typ = t
			case f.typ != t:
				f.typ = element.TypeString
			}
		}
	}

	fields := make([]element.TableField, 0, len(order))
	for _, f := range order {
		fields = append(fields, element.TableField{
			Name:     f.name,
			Type:     f.typ.String(),
			Nullable: f.nullable || f.seen < len(docs) || f.typ == element.TypeNull,
		})
	}
	return element.TagPrimaryKey(fields, "_id")
}

func valueType(v interface{}) element.FieldType {
	switch v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return element.TypeNull
	case string, primitive.ObjectID, primitive.Symbol, primitive.JavaScript, primitive.Regex:
		return element.TypeString
	case bool:
		return element.TypeBoolean
	case int32:
		return element.TypeInt
	case int64:
		return element.TypeBigInt
	case float64:
		return element.TypeDouble
	case primitive.Decimal128:
		return element.TypeDecimal
	case primitive.DateTime, primitive.Timestamp:
		return element.TypeTimestamp
	case primitive.Binary:
		return element.TypeBytes
	case bson.A:
		return element.TypeArray
	case bson.D, bson.M:
		return element.TypeRow
	}
	return element.TypeString
}
