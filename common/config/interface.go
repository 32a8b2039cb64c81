package config

// Configuration 基于路径的JSON配置，路径以 '.' 分隔，例如 "pool.idleTimeoutSeconds"
type Configuration interface {
	Set(path string, value interface{})
	Get(path string) interface{}

	GetString(path string) string
	GetStringWithDefault(path, defaultValue string) string
	GetInt(path string) int
	GetIntWithDefault(path string, defaultValue int) int
	GetBool(path string) bool
	GetBoolWithDefault(path string, defaultValue bool) bool

	GetStringList(path string) []string
	// GetStringMap 把一层对象展开为字符串map，非字符串值按JSON文本输出
	GetStringMap(path string) map[string]string
	GetConfiguration(path string) Configuration

	ToJSON() (string, error)
	IsExists(path string) bool
}
