package element

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagPrimaryKey(t *testing.T) {
	fields := []TableField{
		NewTableField("id", TypeBigInt),
		NewTableField("name", TypeString),
		NewTableField("id", TypeBigInt),
	}

	TagPrimaryKey(fields, "id")

	assert.True(t, fields[0].PrimaryKey)
	assert.False(t, fields[1].PrimaryKey)
	assert.False(t, fields[2].PrimaryKey, "only the first matching field is tagged")

	name, ok := PrimaryKeyField(fields)
	assert.True(t, ok)
	assert.Equal(t, "id", name)
}

func TestTagPrimaryKey_Absent(t *testing.T) {
	fields := []TableField{NewTableField("a", TypeInt), NewTableField("b", TypeInt)}
	fields[1].PrimaryKey = true

	TagPrimaryKey(fields, "missing")

	_, ok := PrimaryKeyField(fields)
	assert.False(t, ok)
}

func TestWithComment(t *testing.T) {
	f := NewTableField("a", TypeString).WithComment("user name")
	require.NotNil(t, f.Comment)
	assert.Equal(t, "user name", *f.Comment)

	assert.Nil(t, NewTableField("a", TypeString).WithComment("").Comment)
}

func TestParseFieldType(t *testing.T) {
	tests := map[string]FieldType{
		"varchar":          TypeString,
		"INT":              TypeInt,
		"Long":             TypeBigInt,
		"datetime":         TypeTimestamp,
		" bool ":           TypeBoolean,
		"map<string, int>": FieldType("map<string, int>"),
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseFieldType(in), in)
	}
}

func TestParseFieldMap_KeepsKeyOrder(t *testing.T) {
	fields, err := ParseFieldMap(`{"name":"string","age":"int","created":"timestamp"}`)
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, "name", fields[0].Name)
	assert.Equal(t, "string", fields[0].Type)
	assert.Equal(t, "age", fields[1].Name)
	assert.Equal(t, "int", fields[1].Type)
	assert.Equal(t, "created", fields[2].Name)
	for _, f := range fields {
		assert.True(t, f.Nullable)
		assert.False(t, f.PrimaryKey)
	}
}

func TestParseFieldMap_EmptyObjectIsEmptyList(t *testing.T) {
	fields, err := ParseFieldMap(`{}`)
	require.NoError(t, err)
	assert.NotNil(t, fields)
	assert.Empty(t, fields)

	out, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))
}

func TestParseFieldMap_Errors(t *testing.T) {
	for _, raw := range []string{
		`{"name":"string"`,
		`not json`,
		`{"age": 1}`,
		`["a","b"]`,
	} {
		_, err := ParseFieldMap(raw)
		assert.ErrorIs(t, err, ErrInvalidFieldMap, raw)
	}
}

func TestParseSchema(t *testing.T) {
	fields, err := ParseSchema(`{"fields":{"id":"bigint","msg":"string"}}`)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Name)
	assert.Equal(t, "msg", fields[1].Name)

	_, err = ParseSchema(`{"columns":{}}`)
	assert.ErrorIs(t, err, ErrInvalidFieldMap)
}
