package iceberg

import (
	"context"
	"strings"

	"github.com/apache/iceberg-go"
	"github.com/apache/iceberg-go/catalog/rest"
	"github.com/apache/iceberg-go/table"
	"github.com/longkeyy/go-datasource/common/config"
)

// restCatalog REST catalog 客户端，创建时会请求 /v1/config
type restCatalog struct {
	cat *rest.Catalog
}

func connectCatalog(ctx context.Context, p config.Params) (catalogAPI, error) {
	var opts []rest.Option
	if token := p.String(KeyToken); token != "" {
		opts = append(opts, rest.WithOAuthToken(token))
	}
	if prefix := strings.Trim(p.String(KeyPrefix), "/"); prefix != "" {
		opts = append(opts, rest.WithPrefix(prefix))
	}
	cat, err := rest.NewCatalog(ctx, PluginName, p.String(KeyURI), opts...)
	if err != nil {
		return nil, err
	}
	return &restCatalog{cat: cat}, nil
}

func (r *restCatalog) ListNamespaces(ctx context.Context) ([]table.Identifier, error) {
	return r.cat.ListNamespaces(ctx, nil)
}

func (r *restCatalog) ListTables(ctx context.Context, namespace table.Identifier) ([]table.Identifier, error) {
	var out []table.Identifier
	for ident, err := range r.cat.ListTables(ctx, namespace) {
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, nil
}

func (r *restCatalog) Schema(ctx context.Context, ident table.Identifier) (*iceberg.Schema, error) {
	tbl, err := r.cat.LoadTable(ctx, ident, nil)
	if err != nil {
		return nil, err
	}
	return tbl.Schema(), nil
}
