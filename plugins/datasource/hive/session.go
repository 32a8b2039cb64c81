package hive

import (
	"context"
	"fmt"
	"strings"

	"github.com/beltran/gohive"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/database/rdbms"
)

type gohiveSession struct {
	conn *gohive.Connection
}

func dialHive(ctx context.Context, p config.Params) (session, error) {
	u, err := rdbms.ParseJDBCURL(p.String(rdbms.KeyURL))
	if err != nil {
		return nil, err
	}
	if u.Subprotocol != "hive2" {
		return nil, fmt.Errorf("invalid Hive JDBC URL: %s", u.Raw)
	}
	port := u.Port
	if port == 0 {
		port = 10000
	}

	conf := gohive.NewConnectConfiguration()
	conf.Username = p.String(rdbms.KeyUser)
	conf.Password = p.String(rdbms.KeyPassword)
	conf.Database = u.DatabaseOr("default")

	auth := strings.ToUpper(p.StringOr(KeyAuth, "NONE"))
	if auth == "NONE" && conf.Password == "" {
		auth = "NOSASL"
	}
	conn, err := gohive.Connect(u.Host, port, auth, conf)
	if err != nil {
		return nil, err
	}
	return &gohiveSession{conn: conn}, nil
}

// Query 执行语句并把所有列读成字符串
func (s *gohiveSession) Query(ctx context.Context, stmt string) ([][]string, error) {
	cursor := s.conn.Cursor()
	defer cursor.Close()

	cursor.Exec(ctx, stmt)
	if cursor.Err != nil {
		return nil, cursor.Err
	}
	n := len(cursor.Description())
	var rows [][]string
	for cursor.HasMore(ctx) {
		if cursor.Err != nil {
			return nil, cursor.Err
		}
		row := make([]string, n)
		dests := make([]interface{}, n)
		for i := range row {
			dests[i] = &row[i]
		}
		cursor.FetchOne(ctx, dests...)
		if cursor.Err != nil {
			return nil, cursor.Err
		}
		rows = append(rows, row)
	}
	return rows, cursor.Err
}

func (s *gohiveSession) Close() error {
	return s.conn.Close()
}
