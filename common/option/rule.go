package option

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRule 规则定义错误
var ErrInvalidRule = errors.New("invalid option rule")

// ErrMissingOption 缺少必填项
var ErrMissingOption = errors.New("missing required option")

// ErrInvalidValue 选项取值与类型不符
var ErrInvalidValue = errors.New("invalid option value")

// RequiredKind 必填分组类型
type RequiredKind string

const (
	// AbsolutelyRequired 每个选项都必须出现
	AbsolutelyRequired RequiredKind = "absolutely_required"
	// BundledRequired 全部出现或全部不出现
	BundledRequired RequiredKind = "bundled_required"
	// ExclusiveRequired 必须且只能出现一个
	ExclusiveRequired RequiredKind = "exclusive_required"
	// ConditionalRequired 当某个选项等于指定值时必须出现
	ConditionalRequired RequiredKind = "conditional_required"
)

// Condition 条件必填的触发条件
type Condition struct {
	Option *Option `json:"option"`
	Value  string  `json:"value"`
}

// RequiredGroup 一组必填选项
type RequiredGroup struct {
	Kind      RequiredKind `json:"kind"`
	Options   []*Option    `json:"options"`
	Condition *Condition   `json:"condition,omitempty"`
}

// Rule 插件配置规则
type Rule struct {
	OptionalOptions []*Option       `json:"optionalOptions"`
	RequiredOptions []RequiredGroup `json:"requiredOptions"`
}

// RuleBuilder 规则构造器
type RuleBuilder struct {
	optional []*Option
	required []RequiredGroup
}

// NewRuleBuilder 创建规则构造器
func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{}
}

// Optional 添加可选项
func (b *RuleBuilder) Optional(opts ...*Option) *RuleBuilder {
	b.optional = append(b.optional, opts...)
	return b
}

// Required 添加绝对必填项，每个选项单独成组
func (b *RuleBuilder) Required(opts ...*Option) *RuleBuilder {
	for _, o := range opts {
		b.required = append(b.required, RequiredGroup{Kind: AbsolutelyRequired, Options: []*Option{o}})
	}
	return b
}

// Bundled 添加捆绑必填组
func (b *RuleBuilder) Bundled(opts ...*Option) *RuleBuilder {
	b.required = append(b.required, RequiredGroup{Kind: BundledRequired, Options: opts})
	return b
}

// Exclusive 添加互斥必填组
func (b *RuleBuilder) Exclusive(opts ...*Option) *RuleBuilder {
	b.required = append(b.required, RequiredGroup{Kind: ExclusiveRequired, Options: opts})
	return b
}

// Conditional 当cond取值为value时opts必填
func (b *RuleBuilder) Conditional(cond *Option, value string, opts ...*Option) *RuleBuilder {
	b.required = append(b.required, RequiredGroup{
		Kind:      ConditionalRequired,
		Options:   opts,
		Condition: &Condition{Option: cond, Value: value},
	})
	return b
}

// Build 校验并生成规则：同一个key只能出现一次，分组不能为空
func (b *RuleBuilder) Build() (*Rule, error) {
	seen := make(map[string]struct{})
	add := func(o *Option) error {
		if o == nil || o.Key == "" {
			return fmt.Errorf("%w: option without key", ErrInvalidRule)
		}
		if _, ok := seen[o.Key]; ok {
			return fmt.Errorf("%w: option '%s' declared more than once", ErrInvalidRule, o.Key)
		}
		seen[o.Key] = struct{}{}
		return nil
	}

	for _, o := range b.optional {
		if err := add(o); err != nil {
			return nil, err
		}
	}
	for _, g := range b.required {
		if len(g.Options) == 0 {
			return nil, fmt.Errorf("%w: empty %s group", ErrInvalidRule, g.Kind)
		}
		if g.Kind == ExclusiveRequired && len(g.Options) < 2 {
			return nil, fmt.Errorf("%w: exclusive group needs at least two options", ErrInvalidRule)
		}
		if g.Kind == ConditionalRequired && (g.Condition == nil || g.Condition.Option == nil) {
			return nil, fmt.Errorf("%w: conditional group without condition", ErrInvalidRule)
		}
		for _, o := range g.Options {
			if err := add(o); err != nil {
				return nil, err
			}
		}
	}

	return &Rule{
		OptionalOptions: append([]*Option(nil), b.optional...),
		RequiredOptions: append([]RequiredGroup(nil), b.required...),
	}, nil
}

// MustBuild 同Build，定义错误时panic；用于包级规则常量
func (b *RuleBuilder) MustBuild() *Rule {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

// Options 返回规则中的全部选项
func (r *Rule) Options() []*Option {
	all := make([]*Option, 0, len(r.OptionalOptions))
	for _, g := range r.RequiredOptions {
		all = append(all, g.Options...)
	}
	return append(all, r.OptionalOptions...)
}

// Lookup 按key查找选项
func (r *Rule) Lookup(key string) (*Option, bool) {
	for _, o := range r.Options() {
		if o.Key == key {
			return o, true
		}
	}
	return nil, false
}

// Validate checks params against the rule. Blank values count as absent.
// Missing options are reported together.
func (r *Rule) Validate(params map[string]string) error {
	present := func(o *Option) bool {
		return strings.TrimSpace(params[o.Key]) != ""
	}

	var problems []string
	for _, g := range r.RequiredOptions {
		switch g.Kind {
		case AbsolutelyRequired:
			for _, o := range g.Options {
				if !present(o) {
					problems = append(problems, fmt.Sprintf("'%s'", o.Key))
				}
			}
		case BundledRequired:
			n := 0
			for _, o := range g.Options {
				if present(o) {
					n++
				}
			}
			if n != 0 && n != len(g.Options) {
				problems = append(problems, fmt.Sprintf("all or none of %s", keys(g.Options)))
			}
		case ExclusiveRequired:
			n := 0
			for _, o := range g.Options {
				if present(o) {
					n++
				}
			}
			if n != 1 {
				problems = append(problems, fmt.Sprintf("exactly one of %s", keys(g.Options)))
			}
		case ConditionalRequired:
			condValue := params[g.Condition.Option.Key]
			if condValue == "" {
				condValue = g.Condition.Option.DefaultString()
			}
			if !strings.EqualFold(condValue, g.Condition.Value) {
				continue
			}
			for _, o := range g.Options {
				if !present(o) {
					problems = append(problems, fmt.Sprintf("'%s' (when %s=%s)", o.Key, g.Condition.Option.Key, g.Condition.Value))
				}
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingOption, strings.Join(problems, ", "))
	}

	for _, o := range r.Options() {
		if v, ok := params[o.Key]; ok && strings.TrimSpace(v) != "" {
			if err := o.check(v); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
		}
	}
	return nil
}

func keys(opts []*Option) string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = "'" + o.Key + "'"
	}
	return "[" + strings.Join(names, ", ") + "]"
}
