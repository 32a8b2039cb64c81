package cassandra

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/gocql/gocql"
	"github.com/longkeyy/go-datasource/common/config"
)

const (
	connectTimeout = 30 * time.Second
	socketTimeout  = 30 * time.Second
)

type gocqlSession struct {
	session *gocql.Session
}

func connectCluster(p config.Params) (session, error) {
	port, err := p.Int(KeyPort, DefaultPort)
	if err != nil {
		return nil, err
	}
	useSSL, err := p.Bool(KeyUseSSL, false)
	if err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(p.List(KeyHost)...)
	cluster.Port = port
	cluster.ConnectTimeout = connectTimeout
	cluster.Timeout = socketTimeout
	cluster.Consistency = gocql.LocalOne
	if username := p.String(KeyUsername); username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: username,
			Password: p.String(KeyPassword),
		}
	}
	if dc := p.String(KeyDatacenter); dc != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.DCAwareRoundRobinPolicy(dc)
	}
	if useSSL {
		cluster.SslOpts = &gocql.SslOptions{
			Config: &tls.Config{InsecureSkipVerify: true},
		}
	}

	s, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}
	return &gocqlSession{session: s}, nil
}

func (s *gocqlSession) Query(ctx context.Context, stmt string, args ...interface{}) ([]map[string]interface{}, error) {
	return s.session.Query(stmt, args...).WithContext(ctx).Iter().SliceMap()
}

func (s *gocqlSession) Close() {
	s.session.Close()
}
