package rdbms

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// JDBCURL 解析后的 JDBC URL
type JDBCURL struct {
	// Subprotocol 例如 mysql、postgresql、sqlserver、oracle:thin
	Subprotocol string
	Host        string
	Port        int
	Database    string
	Properties  map[string]string
	Raw         string
}

// HostPort host:port，端口缺省时使用 defaultPort
func (u *JDBCURL) HostPort(defaultPort int) string {
	port := u.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(u.Host, strconv.Itoa(port))
}

// DatabaseOr 数据库为空时返回默认值
func (u *JDBCURL) DatabaseOr(defaultDatabase string) string {
	if u.Database == "" {
		return defaultDatabase
	}
	return u.Database
}

// ParseJDBCURL 解析常见的 JDBC URL 形式：
//
//	jdbc:mysql://host:port/db?k=v
//	jdbc:sqlserver://host:port;databaseName=db;k=v
//	jdbc:hive2://host:port/db;k=v
//	jdbc:oracle:thin:@host:port:SID
//	jdbc:oracle:thin:@//host:port/service
func ParseJDBCURL(raw string) (*JDBCURL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(raw), "jdbc:") {
		return nil, fmt.Errorf("invalid JDBC URL: %s", raw)
	}
	rest := raw[len("jdbc:"):]
	u := &JDBCURL{Raw: raw, Properties: make(map[string]string)}

	if strings.HasPrefix(strings.ToLower(rest), "oracle:thin:@") {
		u.Subprotocol = "oracle:thin"
		return u, parseOracleAddress(u, rest[len("oracle:thin:@"):])
	}

	idx := strings.Index(rest, "://")
	if idx <= 0 {
		return nil, fmt.Errorf("invalid JDBC URL: %s", raw)
	}
	u.Subprotocol = strings.ToLower(rest[:idx])
	rest = rest[idx+len("://"):]

	// ;k=v 形式的属性（sqlserver、hive2、db2）
	if semi := strings.Index(rest, ";"); semi >= 0 {
		parseProperties(u.Properties, rest[semi+1:], ";")
		rest = rest[:semi]
	}
	if q := strings.Index(rest, "?"); q >= 0 {
		parseProperties(u.Properties, rest[q+1:], "&")
		rest = rest[:q]
	}

	hostPort := rest
	if slash := strings.Index(rest, "/"); slash >= 0 {
		hostPort = rest[:slash]
		u.Database = strings.Trim(rest[slash+1:], "/")
	}
	if err := setHostPort(u, hostPort); err != nil {
		return nil, fmt.Errorf("invalid JDBC URL %s: %w", raw, err)
	}

	if u.Database == "" {
		for _, k := range []string{"databaseName", "database", "DatabaseName"} {
			if v, ok := u.Properties[k]; ok {
				u.Database = v
				break
			}
		}
	}
	return u, nil
}

func parseOracleAddress(u *JDBCURL, addr string) error {
	addr = strings.TrimPrefix(addr, "//")
	// host:port/service 或 host:port:SID
	if slash := strings.Index(addr, "/"); slash >= 0 {
		u.Database = addr[slash+1:]
		return setHostPort(u, addr[:slash])
	}
	parts := strings.Split(addr, ":")
	switch len(parts) {
	case 3:
		u.Database = parts[2]
		return setHostPort(u, parts[0]+":"+parts[1])
	case 2, 1:
		return setHostPort(u, addr)
	}
	return fmt.Errorf("invalid oracle address: %s", addr)
}

func setHostPort(u *JDBCURL, hostPort string) error {
	if hostPort == "" {
		return fmt.Errorf("missing host")
	}
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		// 没有端口
		u.Host = hostPort
		return nil
	}
	u.Host = host
	if port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port '%s'", port)
		}
		u.Port = p
	}
	return nil
}

func parseProperties(dst map[string]string, s, sep string) {
	for _, kv := range strings.Split(s, sep) {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		dst[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
}

// MySQLDSN 转换为 go-sql-driver/mysql DSN
func MySQLDSN(jdbcURL, username, password string) (string, error) {
	u, err := ParseJDBCURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Subprotocol != "mysql" && u.Subprotocol != "mariadb" {
		return "", fmt.Errorf("invalid MySQL JDBC URL: %s", jdbcURL)
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=30s",
		username, password, u.HostPort(3306), u.Database), nil
}

// PostgresDSN 转换为 pgx keyword/value DSN
func PostgresDSN(jdbcURL, username, password string) (string, error) {
	return PostgresDatabaseDSN(jdbcURL, username, password, "")
}

// PostgresDatabaseDSN 连接到指定库，database 为空时使用 URL 中的库
func PostgresDatabaseDSN(jdbcURL, username, password, database string) (string, error) {
	u, err := ParseJDBCURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Subprotocol != "postgresql" && !strings.HasPrefix(u.Subprotocol, "kingbase") {
		return "", fmt.Errorf("invalid PostgreSQL JDBC URL: %s", jdbcURL)
	}
	port := u.Port
	if port == 0 {
		port = 5432
	}
	if database == "" {
		database = u.DatabaseOr("postgres")
	}
	sslmode := u.Properties["sslmode"]
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=30",
		u.Host, port, username, password, database, sslmode), nil
}

// SQLServerDSN 转换为 go-mssqldb URL
func SQLServerDSN(jdbcURL, username, password string) (string, error) {
	u, err := ParseJDBCURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Subprotocol != "sqlserver" {
		return "", fmt.Errorf("invalid SQL Server JDBC URL: %s", jdbcURL)
	}
	q := url.Values{}
	if u.Database != "" {
		q.Set("database", u.Database)
	}
	q.Set("connection timeout", "30")
	if enc, ok := u.Properties["encrypt"]; ok {
		q.Set("encrypt", enc)
	}
	dsn := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(username, password),
		Host:     u.HostPort(1433),
		RawQuery: q.Encode(),
	}
	return dsn.String(), nil
}

// OracleDSN 转换为 go-ora URL
func OracleDSN(jdbcURL, username, password string) (string, error) {
	u, err := ParseJDBCURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Subprotocol != "oracle:thin" {
		return "", fmt.Errorf("invalid Oracle JDBC URL: %s", jdbcURL)
	}
	dsn := &url.URL{
		Scheme: "oracle",
		User:   url.UserPassword(username, password),
		Host:   u.HostPort(1521),
		Path:   "/" + u.Database,
	}
	return dsn.String(), nil
}
