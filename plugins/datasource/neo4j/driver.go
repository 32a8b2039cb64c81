package neo4j

import (
	"context"
	"time"

	"github.com/longkeyy/go-datasource/common/config"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type driverGraph struct {
	driver neo4j.DriverWithContext
}

func connectDriver(p config.Params) (graph, error) {
	auth := neo4j.NoAuth()
	if username := p.String(KeyUsername); username != "" {
		auth = neo4j.BasicAuth(username, p.String(KeyPassword), "")
	} else if token := p.String(KeyBearerToken); token != "" {
		auth = neo4j.BearerAuth(token)
	}
	driver, err := neo4j.NewDriverWithContext(p.String(KeyURI), auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = 1
		c.SocketConnectTimeout = 30 * time.Second
		c.ConnectionAcquisitionTimeout = 30 * time.Second
	})
	if err != nil {
		return nil, err
	}
	return &driverGraph{driver: driver}, nil
}

func (g *driverGraph) VerifyConnectivity(ctx context.Context) error {
	return g.driver.VerifyConnectivity(ctx)
}

func (g *driverGraph) Run(ctx context.Context, database, cypher string, params map[string]any) ([]map[string]any, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(database))
	}
	result, err := neo4j.ExecuteQuery(ctx, g.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, err
	}
	records := make([]map[string]any, 0, len(result.Records))
	for _, r := range result.Records {
		records = append(records, r.AsMap())
	}
	return records, nil
}

func (g *driverGraph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
