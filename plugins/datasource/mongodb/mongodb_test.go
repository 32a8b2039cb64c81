package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestInferFields(t *testing.T) {
	oid := primitive.NewObjectID()
	docs := []bson.D{
		{{Key: "_id", Value: oid}, {Key: "name", Value: "a"}, {Key: "age", Value: int32(3)}, {Key: "deleted", Value: nil}},
		{{Key: "_id", Value: oid}, {Key: "name", Value: "b"}, {Key: "age", Value: int64(4)}, {Key: "tags", Value: bson.A{"x"}}},
		{{Key: "_id", Value: oid}, {Key: "name", Value: nil}, {Key: "age", Value: "five"},
			{Key: "created", Value: primitive.NewDateTimeFromTime(time.Now())}},
	}

	fields := InferFields(docs)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"_id", "name", "age", "deleted", "tags", "created"}, names)

	byName := make(map[string]element.TableField)
	for _, f := range fields {
		byName[f.Name] = f
	}

	assert.True(t, byName["_id"].PrimaryKey)
	assert.False(t, byName["_id"].Nullable)
	assert.Equal(t, "string", byName["_id"].Type)

	assert.Equal(t, "string", byName["name"].Type)
	assert.True(t, byName["name"].Nullable, "null in one document")

	assert.Equal(t, "string", byName["age"].Type, "conflicting types fall back to string")

	assert.Equal(t, "", byName["deleted"].Type, "null-only key has no type")
	assert.True(t, byName["deleted"].Nullable)

	assert.Equal(t, "array", byName["tags"].Type)
	assert.True(t, byName["tags"].Nullable, "missing in some documents")
	assert.Equal(t, "timestamp", byName["created"].Type)

	pk, ok := element.PrimaryKeyField(fields)
	require.True(t, ok)
	assert.Equal(t, "_id", pk)
}

type fakeStore struct {
	databases   []string
	collections []string
	docs        []bson.D
	pingErr     error
	limit       int64
	closed      int
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }
func (s *fakeStore) ListDatabaseNames(context.Context) ([]string, error) {
	return s.databases, nil
}
func (s *fakeStore) ListCollectionNames(context.Context, string) ([]string, error) {
	return s.collections, nil
}
func (s *fakeStore) Sample(_ context.Context, _, _ string, limit int64) ([]bson.D, error) {
	s.limit = limit
	return s.docs, nil
}
func (s *fakeStore) Close(context.Context) error {
	s.closed++
	return nil
}

func newFakeChannel(s *fakeStore) *Channel {
	return newChannel(func(context.Context, config.Params) (store, error) { return s, nil })
}

var params = map[string]string{KeyURI: "mongodb://localhost:27017"}

func TestChannel(t *testing.T) {
	ctx := context.Background()
	s := &fakeStore{
		databases:   []string{"admin", "app", "config", "local"},
		collections: []string{"users", "orders", "user_events"},
		docs:        []bson.D{{{Key: "_id", Value: int64(1)}}},
	}
	ch := newFakeChannel(s)

	dbs, err := ch.ListDatabases(ctx, PluginName, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, dbs)

	tables, err := ch.ListTables(ctx, PluginName, params, "app", map[string]string{plugin.OptionFilterName: "user"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user_events", "users"}, tables)

	fields, err := ch.TableFields(ctx, PluginName, params, "app", "users")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, int64(SampleSize), s.limit)

	assert.Equal(t, 3, s.closed)
}

func TestChannel_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newFakeChannel(&fakeStore{}).TableFields(ctx, PluginName, params, "app", "empty")
	assert.ErrorIs(t, err, plugin.ErrSchemaIntrospection)

	cause := errors.New("server selection timeout")
	ok, err := newFakeChannel(&fakeStore{pingErr: cause}).CheckConnectivity(ctx, PluginName, params)
	assert.False(t, ok)
	assert.ErrorIs(t, err, plugin.ErrConnectivity)
	assert.ErrorIs(t, err, cause)

	_, err = newFakeChannel(&fakeStore{}).ListDatabases(ctx, PluginName, map[string]string{})
	assert.ErrorIs(t, err, plugin.ErrConfiguration)
}

func TestFactory_SupportsVirtualTables(t *testing.T) {
	d := Factory{}.SupportedDataSources()[0]
	assert.True(t, d.SupportVirtualTables)
	assert.Equal(t, plugin.NoStructured, d.Type)
}
