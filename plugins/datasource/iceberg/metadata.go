package iceberg

import (
	"fmt"

	"github.com/apache/iceberg-go"
	"github.com/longkeyy/go-datasource/common/element"
)

// schemaFields required 字段不可空，第一个 identifier field 标记为主键
func schemaFields(s *iceberg.Schema) ([]element.TableField, error) {
	if s == nil || len(s.Fields()) == 0 {
		return nil, fmt.Errorf("table has no current schema")
	}

	fields := make([]element.TableField, 0, len(s.Fields()))
	var primaryKey string
	for _, f := range s.Fields() {
		field := element.TableField{Name: f.Name, Type: f.Type.String(), Nullable: !f.Required}
		fields = append(fields, field.WithComment(f.Doc))
		if primaryKey == "" && len(s.IdentifierFieldIDs) > 0 && f.ID == s.IdentifierFieldIDs[0] {
			primaryKey = f.Name
		}
	}
	return element.TagPrimaryKey(fields, primaryKey), nil
}
