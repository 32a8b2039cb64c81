package plugin

import (
	"sort"
	"strconv"
	"strings"
)

// ListTables 识别的 options key
const (
	OptionFilterName = "filterName"
	OptionSize       = "size"
)

// ListOptions 表列表的过滤和数量限制
type ListOptions struct {
	Filter string
	// Size <= 0 表示不限制
	Size int
}

// ParseListOptions 解析 filterName 和 size，size 非整数时返回 ErrConfiguration
func ParseListOptions(pluginName string, options map[string]string) (ListOptions, error) {
	var lo ListOptions
	if options == nil {
		return lo, nil
	}
	lo.Filter = strings.TrimSpace(options[OptionFilterName])
	if raw := strings.TrimSpace(options[OptionSize]); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return lo, ConfigurationError(pluginName, "option '%s' must be an integer, got '%s'", OptionSize, raw)
		}
		lo.Size = size
	}
	return lo, nil
}

// substring 不含 '%' '*' 的过滤条件按字面子串匹配，其中的 '_' 不是通配符
func (o ListOptions) substring() bool {
	return o.Filter != "" && !strings.ContainsAny(o.Filter, "%*")
}

// LikePattern 转成 SQL LIKE 模式：'*' 替换为 '%'，不含通配符时包成 %f%。
// 包出来的模式里 '_' 仍会匹配任意字符，走 SQL 的调用方需要再用 Refine 收窄结果。
// 没有过滤条件时返回空串。
func (o ListOptions) LikePattern() string {
	if o.Filter == "" {
		return ""
	}
	if o.substring() {
		return "%" + o.Filter + "%"
	}
	return strings.ReplaceAll(o.Filter, "*", "%")
}

// Match 在内存中匹配（忽略大小写），供不走SQL的channel使用。
// 子串过滤按字面比较，显式通配符按 LIKE 语义。
func (o ListOptions) Match(name string) bool {
	if o.Filter == "" {
		return true
	}
	if o.substring() {
		return strings.Contains(strings.ToLower(name), strings.ToLower(o.Filter))
	}
	return likeMatch(strings.ToLower(o.LikePattern()), strings.ToLower(name))
}

// Refine 去掉 SQL LIKE 因 '_' 多匹配出来的名字，保持原有顺序。
// 只作用于子串过滤；显式通配符的结果原样返回。
func (o ListOptions) Refine(names []string) []string {
	if !o.substring() || !strings.Contains(o.Filter, "_") {
		return names
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if o.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

// Apply 过滤、排序并截断
func (o ListOptions) Apply(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if o.Match(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return o.Truncate(out)
}

// Truncate 按 Size 截断，超出时不报错
func (o ListOptions) Truncate(names []string) []string {
	if o.Size > 0 && len(names) > o.Size {
		return names[:o.Size]
	}
	return names
}

// likeMatch 支持 '%'（任意串）和 '_'（单个字符）
func likeMatch(pattern, s string) bool {
	p, str := []rune(pattern), []rune(s)
	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(str) {
		switch {
		case pi < len(p) && (p[pi] == '_' || p[pi] == str[si]):
			pi++
			si++
		case pi < len(p) && p[pi] == '%':
			star = pi
			mark = si
			pi++
		case star != -1:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}
