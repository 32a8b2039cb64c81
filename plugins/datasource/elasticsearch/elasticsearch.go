// Package elasticsearch provides the Elasticsearch datasource plugin. Indices
// are exposed as tables of a single "default" database and index mappings as
// fields.
package elasticsearch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/element"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/longkeyy/go-datasource/common/plugin"
)

const (
	PluginName = "Elasticsearch"

	KeyHosts     = "hosts"
	KeyUsername  = "username"
	KeyPassword  = "password"
	KeyTLSVerify = "tls_verify_certificate"
	KeyIndex     = "index"

	// DefaultDatabase Elasticsearch 没有库的概念
	DefaultDatabase = "default"
)

var (
	connectionRule = option.NewRuleBuilder().
			Required(option.Key(KeyHosts).ListType().NoDefaultValue().
				WithDescription("comma separated addresses, eg: http://localhost:9200")).
			Optional(option.Key(KeyTLSVerify).BoolType().DefaultValue(true).WithDescription("verify server certificate")).
			Bundled(
			option.Key(KeyUsername).StringType().NoDefaultValue().WithDescription("basic auth user"),
			option.Key(KeyPassword).StringType().NoDefaultValue().WithDescription("basic auth password"),
		).
		MustBuild()

	metadataRule = option.NewRuleBuilder().
			Required(option.Key(KeyIndex).StringType().NoDefaultValue().WithDescription("index name")).
			MustBuild()
)

// Channel Elasticsearch 元数据通道
type Channel struct{}

func (c *Channel) ConnectionOptionRule(pluginName string) *option.Rule {
	return connectionRule
}

func (c *Channel) MetadataOptionRule(pluginName string) *option.Rule {
	return metadataRule
}

func newClient(pluginName string, params map[string]string) (*elasticsearch.Client, error) {
	if err := connectionRule.Validate(params); err != nil {
		return nil, plugin.ConfigurationError(pluginName, "%v", err)
	}
	p := config.Params(params)
	verify, err := p.Bool(KeyTLSVerify, true)
	if err != nil {
		return nil, plugin.ConfigurationError(pluginName, "%v", err)
	}

	cfg := elasticsearch.Config{
		Addresses: p.List(KeyHosts),
		Username:  p.String(KeyUsername),
		Password:  p.String(KeyPassword),
	}
	if !verify {
		cfg.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, plugin.ConfigurationError(pluginName, "failed to create elasticsearch client: %v", err)
	}
	return client, nil
}

// readBody 读取响应体，非 2xx 时返回错误
func readBody(res *esapi.Response) ([]byte, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (c *Channel) CheckConnectivity(ctx context.Context, pluginName string, params map[string]string) (bool, error) {
	client, err := newClient(pluginName, params)
	if err != nil {
		return false, err
	}
	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return false, plugin.ConnectivityError(pluginName, "check connectivity", err)
	}
	if _, err := readBody(res); err != nil {
		return false, plugin.ConnectivityError(pluginName, "check connectivity", err)
	}
	return true, nil
}

func (c *Channel) ListDatabases(ctx context.Context, pluginName string, params map[string]string) ([]string, error) {
	return []string{DefaultDatabase}, nil
}

// ListTables 忽略以 . 开头的系统索引
func (c *Channel) ListTables(ctx context.Context, pluginName string, params map[string]string, database string, options map[string]string) ([]string, error) {
	lo, err := plugin.ParseListOptions(pluginName, options)
	if err != nil {
		return nil, err
	}
	client, err := newClient(pluginName, params)
	if err != nil {
		return nil, err
	}
	res, err := client.Cat.Indices(client.Cat.Indices.WithContext(ctx), client.Cat.Indices.WithFormat("json"))
	if err != nil {
		return nil, plugin.ConnectivityError(pluginName, "list tables", err)
	}
	body, err := readBody(res)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "list tables", err)
	}

	var indices []struct {
		Index string `json:"index"`
	}
	if err := json.Unmarshal(body, &indices); err != nil {
		return nil, plugin.IntrospectionError(pluginName, "list tables", err)
	}
	names := make([]string, 0, len(indices))
	for _, idx := range indices {
		if !strings.HasPrefix(idx.Index, ".") {
			names = append(names, idx.Index)
		}
	}
	sort.Strings(names)
	return lo.Apply(names), nil
}

func (c *Channel) TableFields(ctx context.Context, pluginName string, params map[string]string, database, table string) ([]element.TableField, error) {
	client, err := newClient(pluginName, params)
	if err != nil {
		return nil, err
	}
	res, err := client.Indices.GetMapping(client.Indices.GetMapping.WithContext(ctx), client.Indices.GetMapping.WithIndex(table))
	if err != nil {
		return nil, plugin.ConnectivityError(pluginName, "table fields", err)
	}
	body, err := readBody(res)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	fields, err := ParseMapping(body)
	if err != nil {
		return nil, plugin.IntrospectionError(pluginName, "table fields", err)
	}
	return fields, nil
}

// ParseMapping 解析 GET /<index>/_mapping 的响应，按 properties 的声明顺序返回字段。
// 索引是别名时取第一个具体索引；object/nested 类型没有 type 时记为 object。
func ParseMapping(body []byte) ([]element.TableField, error) {
	var properties []byte
	found := false
	err := jsonparser.ObjectEach(body, func(_ []byte, value []byte, _ jsonparser.ValueType, _ int) error {
		if found {
			return nil
		}
		found = true
		props, dataType, _, err := jsonparser.Get(value, "mappings", "properties")
		if err == nil && dataType == jsonparser.Object {
			properties = props
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("malformed mapping: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("index not found in mapping response")
	}

	var fields []element.TableField
	if properties == nil {
		return fields, nil
	}
	err = jsonparser.ObjectEach(properties, func(key []byte, value []byte, _ jsonparser.ValueType, _ int) error {
		typ, err := jsonparser.GetString(value, "type")
		if err != nil {
			typ = "object"
		}
		fields = append(fields, element.TableField{Name: string(key), Type: typ, Nullable: true})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("malformed mapping properties: %w", err)
	}
	return fields, nil
}

// Factory Elasticsearch 插件工厂
type Factory struct{}

func (Factory) FactoryIdentifier() string {
	return PluginName
}

func (Factory) SupportedDataSources() []plugin.Descriptor {
	return []plugin.Descriptor{plugin.NewDescriptor(PluginName, plugin.NoStructured).WithVirtualTables()}
}

func (Factory) CreateChannel(env plugin.Environment) plugin.MetadataChannel {
	return &Channel{}
}
