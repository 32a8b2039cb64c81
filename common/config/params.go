package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Params 插件连接参数，扁平的字符串map
type Params map[string]string

// String 去掉首尾空白后的值
func (p Params) String(key string) string {
	return strings.TrimSpace(p[key])
}

// StringOr 值为空时返回默认值
func (p Params) StringOr(key, defaultValue string) string {
	if v := p.String(key); v != "" {
		return v
	}
	return defaultValue
}

// Int 值为空时返回默认值，非整数时返回错误
func (p Params) Int(key string, defaultValue int) (int, error) {
	v := p.String(key)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter '%s' must be an integer, got '%s'", key, v)
	}
	return i, nil
}

// Bool 值为空时返回默认值
func (p Params) Bool(key string, defaultValue bool) (bool, error) {
	v := p.String(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parameter '%s' must be a boolean, got '%s'", key, v)
	}
	return b, nil
}

// Require 返回第一个缺失的key对应的错误
func (p Params) Require(keys ...string) error {
	for _, k := range keys {
		if p.String(k) == "" {
			return fmt.Errorf("parameter '%s' is required", k)
		}
	}
	return nil
}

// List 逗号分隔的列表，忽略空项
func (p Params) List(key string) []string {
	var out []string
	for _, item := range strings.Split(p.String(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
