// Package kingbase provides the JDBC-KingBase datasource plugin. KingBase
// speaks the PostgreSQL protocol, so the Postgres dialect is reused.
package kingbase

import (
	"github.com/longkeyy/go-datasource/common/database/rdbms"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/longkeyy/go-datasource/plugins/datasource/postgres"
)

const PluginName = "JDBC-KingBase"

var systemDatabases = []string{
	"information_schema", "pg_catalog", "sys_catalog", "sys", "template0", "template1",
	"template2", "security", "samples",
}

type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.Database)}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return rdbms.NewChannel(postgres.NewDialect("jdbc:kingbase8://localhost:54321/test", systemDatabases))
}
