package rdbms

import (
	"database/sql"
	"strings"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/option"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 通用 JDBC 连接参数
const (
	KeyURL      = "url"
	KeyDriver   = "driver"
	KeyUser     = "user"
	KeyPassword = "password"
	KeyDatabase = "database"
	KeyTable    = "table"
)

// Dialect 一种数据库的元数据查询方言。
//
// TablesQuery 只返回一列表名（带 schema 的数据库返回 "schema.table"），
// 按 schema、表名排序；pattern 为 SQL LIKE 模式，空串表示不过滤。
// ColumnsQuery 返回四列：列名、类型名、是否可空（YES/NO、Y/N、1/0）、注释。
// PrimaryKeyQuery 返回主键列名，按键内序号排序；返回空串表示不查询主键。
type Dialect interface {
	Open(params config.Params) (*sql.DB, error)
	DatabasesQuery() string
	SystemDatabases() []string
	TablesQuery(database, pattern string) (string, []any)
	ColumnsQuery(database, table string) (string, []any)
	PrimaryKeyQuery(database, table string) (string, []any)
	ConnectionRule() *option.Rule
	MetadataRule() *option.Rule
	// CheckQuery 连通性检查语句，返回空结果视为不可达
	CheckQuery() string
}

// Base 提供 Dialect 的默认实现，具体方言内嵌后覆盖需要的方法
type Base struct {
	// URLExample 出现在 url 选项的描述中
	URLExample string
	System     []string
}

func (b Base) SystemDatabases() []string { return b.System }

func (b Base) CheckQuery() string { return "SELECT 1" }

func (b Base) ConnectionRule() *option.Rule {
	return ConnectionRule(b.URLExample)
}

func (b Base) MetadataRule() *option.Rule {
	return metadataRule
}

func (b Base) PrimaryKeyQuery(database, table string) (string, []any) {
	return "", nil
}

var (
	optionDriver   = option.Key(KeyDriver).StringType().NoDefaultValue().WithDescription("jdbc driver name, kept for compatibility")
	optionUser     = option.Key(KeyUser).StringType().NoDefaultValue().WithDescription("jdbc user")
	optionPassword = option.Key(KeyPassword).StringType().NoDefaultValue().WithDescription("jdbc password")

	metadataRule = option.NewRuleBuilder().
			Required(
			option.Key(KeyDatabase).StringType().NoDefaultValue().WithDescription("database name"),
			option.Key(KeyTable).StringType().NoDefaultValue().WithDescription("table name"),
		).
		MustBuild()
)

// ConnectionRule url 必填，driver/user/password 可选
func ConnectionRule(urlExample string) *option.Rule {
	return option.NewRuleBuilder().
		Required(option.Key(KeyURL).StringType().NoDefaultValue().
			WithDescription("jdbc url, eg: "+urlExample)).
		Optional(optionDriver, optionUser, optionPassword).
		MustBuild()
}

// OpenGorm 通过 gorm dialector 打开连接并返回底层 *sql.DB
func OpenGorm(dialector gorm.Dialector) (*sql.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return gdb.DB()
}

// QuoteLiteral 单引号字符串字面量，用于不支持参数绑定的 SHOW 语句
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdentifier 使用给定引号包裹标识符
func QuoteIdentifier(name, quote string) string {
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}

// isSystemDatabase 忽略大小写
func isSystemDatabase(d Dialect, name string) bool {
	for _, s := range d.SystemDatabases() {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// parseNullable 兼容不同数据库的可空标识
func parseNullable(v sql.NullString) bool {
	if !v.Valid {
		return true
	}
	switch strings.ToUpper(strings.TrimSpace(v.String)) {
	case "NO", "N", "0", "FALSE", "NOT NULL":
		return false
	}
	return true
}

func splitQualified(name string) (schema, table string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// SplitQualified 拆分 "schema.table"，没有 schema 时使用 defaultSchema
func SplitQualified(name, defaultSchema string) (string, string) {
	schema, table := splitQualified(name)
	if schema == "" {
		schema = defaultSchema
	}
	return schema, table
}
