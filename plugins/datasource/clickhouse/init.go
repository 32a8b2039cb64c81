package clickhouse

import (
	"github.com/longkeyy/go-datasource/common/plugin"
)

func init() {
	plugin.Register(Factory{})
}
