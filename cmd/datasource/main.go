package main

import (
	"github.com/longkeyy/go-datasource/core/engine"

	// 导入插件以触发注册
	_ "github.com/longkeyy/go-datasource/plugins/datasource/cassandra"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/clickhouse"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/console"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/databend"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/db2"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/doris"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/elasticsearch"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/fakesource"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/file"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/hive"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/iceberg"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/kingbase"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/mongodb"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/mysql"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/neo4j"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/oracle"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/postgres"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/pulsar"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/sqlserver"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/starrocks"
	_ "github.com/longkeyy/go-datasource/plugins/datasource/tdengine"
)

var version = "dev"

func main() {
	engine.Main(version)
}
