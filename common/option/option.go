// Package option describes the configuration accepted by a datasource plugin:
// typed options with defaults and descriptions, grouped into required and
// optional sets. Rules are built once and never mutated afterwards.
package option

import (
	"fmt"
	"strconv"
	"strings"
)

// Type 选项值类型
type Type string

const (
	String Type = "string"
	Int    Type = "int"
	Long   Type = "long"
	Double Type = "double"
	Bool   Type = "bool"
	Enum   Type = "enum"
	List   Type = "list"
	Map    Type = "map"
)

// Option 单个配置项
type Option struct {
	Key          string   `json:"key"`
	Type         Type     `json:"type"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	Description  string   `json:"description"`
	EnumValues   []string `json:"enumValues,omitempty"`
}

// Key starts the declaration of an option, e.g.
//
//	option.Key("url").StringType().NoDefaultValue().WithDescription("jdbc url")
func Key(key string) *Builder {
	return &Builder{key: key}
}

// Builder 选项构造器
type Builder struct {
	key string
}

// TypedBuilder 已确定类型的选项构造器
type TypedBuilder struct {
	opt Option
}

func (b *Builder) typed(t Type) *TypedBuilder {
	return &TypedBuilder{opt: Option{Key: b.key, Type: t}}
}

func (b *Builder) StringType() *TypedBuilder { return b.typed(String) }
func (b *Builder) IntType() *TypedBuilder    { return b.typed(Int) }
func (b *Builder) LongType() *TypedBuilder   { return b.typed(Long) }
func (b *Builder) DoubleType() *TypedBuilder { return b.typed(Double) }
func (b *Builder) BoolType() *TypedBuilder   { return b.typed(Bool) }
func (b *Builder) ListType() *TypedBuilder   { return b.typed(List) }
func (b *Builder) MapType() *TypedBuilder    { return b.typed(Map) }

// EnumType 枚举类型，values为全部合法取值
func (b *Builder) EnumType(values ...string) *TypedBuilder {
	t := b.typed(Enum)
	t.opt.EnumValues = append([]string(nil), values...)
	return t
}

// DefaultValue 设置默认值
func (t *TypedBuilder) DefaultValue(v any) *TypedBuilder {
	t.opt.DefaultValue = v
	return t
}

// NoDefaultValue 显式声明没有默认值
func (t *TypedBuilder) NoDefaultValue() *TypedBuilder {
	t.opt.DefaultValue = nil
	return t
}

// WithDescription 完成构造
func (t *TypedBuilder) WithDescription(desc string) *Option {
	o := t.opt
	o.Description = desc
	return &o
}

// DefaultString 默认值的字符串形式，无默认值时返回空串
func (o *Option) DefaultString() string {
	if o.DefaultValue == nil {
		return ""
	}
	return fmt.Sprint(o.DefaultValue)
}

// check 校验参数值是否符合选项类型
func (o *Option) check(value string) error {
	switch o.Type {
	case Int, Long:
		if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
			return fmt.Errorf("option '%s' expects an integer, got '%s'", o.Key, value)
		}
	case Double:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return fmt.Errorf("option '%s' expects a number, got '%s'", o.Key, value)
		}
	case Bool:
		if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("option '%s' expects a boolean, got '%s'", o.Key, value)
		}
	case Enum:
		for _, v := range o.EnumValues {
			if strings.EqualFold(v, value) {
				return nil
			}
		}
		return fmt.Errorf("option '%s' must be one of %v, got '%s'", o.Key, o.EnumValues, value)
	}
	return nil
}
