package plugin

import (
	"errors"
	"testing"

	"github.com/longkeyy/go-datasource/common/pool"
	"github.com/stretchr/testify/assert"
)

func TestDataSourceError_MatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:3306: connect: connection refused")
	err := ConnectivityError("JDBC-Mysql", "check connectivity", cause)

	assert.ErrorIs(t, err, ErrConnectivity)
	assert.ErrorIs(t, err, pool.ErrConnectivity)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrSchemaIntrospection)
	assert.Equal(t,
		"data source connectivity failure [JDBC-Mysql] check connectivity: dial tcp 10.0.0.1:3306: connect: connection refused",
		err.Error())

	var dsErr *DataSourceError
	assert.True(t, errors.As(err, &dsErr))
	assert.Equal(t, "JDBC-Mysql", dsErr.Plugin)
}

func TestErrorConstructors(t *testing.T) {
	assert.ErrorIs(t, NotFound("nope"), ErrPluginNotFound)
	assert.ErrorIs(t, ConfigurationError("x", "bad %s", "value"), ErrConfiguration)
	assert.ErrorIs(t, IntrospectionError("x", "list tables", errors.New("syntax")), ErrSchemaIntrospection)
	assert.ErrorIs(t, PoolCreationError("x", errors.New("auth")), pool.ErrPoolCreation)
	assert.ErrorIs(t, Unsupported("JDBC-Oracle", "table fields batch"), ErrUnsupportedOperation)
}
