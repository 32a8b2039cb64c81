// Package starrocks provides the JDBC-StarRocks datasource plugin over the
// MySQL protocol.
package starrocks

import (
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/longkeyy/go-datasource/plugins/datasource/mysql"
)

const PluginName = "JDBC-StarRocks"

var systemDatabases = []string{"_statistics_", "information_schema", "sys"}

// Factory JDBC-StarRocks 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.Database)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return rdbms.NewChannel(mysql.NewDialect("jdbc:mysql://localhost:9030/test", systemDatabases))
}
