package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultConfiguration 默认配置实现
type DefaultConfiguration struct {
	data map[string]interface{}
}

func NewConfiguration() Configuration {
	return &DefaultConfiguration{
		data: make(map[string]interface{}),
	}
}

func NewConfigurationFromMap(data map[string]interface{}) Configuration {
	if data == nil {
		data = make(map[string]interface{})
	}
	return &DefaultConfiguration{
		data: data,
	}
}

func FromJSON(jsonStr string) (Configuration, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return nil, fmt.Errorf("invalid configuration json: %w", err)
	}
	return NewConfigurationFromMap(data), nil
}

func FromFile(filename string) (Configuration, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return FromJSON(string(content))
}

func (c *DefaultConfiguration) Set(path string, value interface{}) {
	keys := strings.Split(path, ".")
	current := c.data

	for i, key := range keys {
		if i == len(keys)-1 {
			current[key] = value
			return
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[key] = next
		}
		current = next
	}
}

func (c *DefaultConfiguration) Get(path string) interface{} {
	if path == "" {
		return c.data
	}
	var current interface{} = c.data
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		if current, ok = m[key]; !ok {
			return nil
		}
	}
	return current
}

func (c *DefaultConfiguration) GetString(path string) string {
	value := c.Get(path)
	if value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", value)
}

func (c *DefaultConfiguration) GetStringWithDefault(path, defaultValue string) string {
	value := c.GetString(path)
	if value == "" {
		return defaultValue
	}
	return value
}

func (c *DefaultConfiguration) GetInt(path string) int {
	switch v := c.Get(path).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return 0
}

func (c *DefaultConfiguration) GetIntWithDefault(path string, defaultValue int) int {
	if c.Get(path) == nil {
		return defaultValue
	}
	return c.GetInt(path)
}

func (c *DefaultConfiguration) GetBool(path string) bool {
	switch v := c.Get(path).(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

func (c *DefaultConfiguration) GetBoolWithDefault(path string, defaultValue bool) bool {
	if c.Get(path) == nil {
		return defaultValue
	}
	return c.GetBool(path)
}

func (c *DefaultConfiguration) GetStringList(path string) []string {
	list, ok := c.Get(path).([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, len(list))
	for i, item := range list {
		result[i] = fmt.Sprintf("%v", item)
	}
	return result
}

func (c *DefaultConfiguration) GetStringMap(path string) map[string]string {
	m, ok := c.Get(path).(map[string]interface{})
	if !ok {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		switch tv := v.(type) {
		case string:
			result[k] = tv
		case nil:
			result[k] = ""
		case float64:
			result[k] = strconv.FormatFloat(tv, 'f', -1, 64)
		case map[string]interface{}, []interface{}:
			raw, err := json.Marshal(tv)
			if err != nil {
				continue
			}
			result[k] = string(raw)
		default:
			result[k] = fmt.Sprintf("%v", tv)
		}
	}
	return result
}

func (c *DefaultConfiguration) GetConfiguration(path string) Configuration {
	if m, ok := c.Get(path).(map[string]interface{}); ok {
		return NewConfigurationFromMap(m)
	}
	return NewConfiguration()
}

func (c *DefaultConfiguration) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (c *DefaultConfiguration) IsExists(path string) bool {
	return c.Get(path) != nil
}
