package file

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
	"github.com/colinmarc/hdfs/v2"
	"github.com/jlaffaye/ftp"
	"github.com/longkeyy/go-datasource/common/config"
	"github.com/longkeyy/go-datasource/common/option"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const (
	KeyDefaultFS  = "fs.defaultFS"
	KeyRemoteUser = "remote_user"

	KeyHost     = "host"
	KeyPort     = "port"
	KeyUser     = "user"
	KeyPassword = "password"

	KeyBucket       = "bucket"
	KeyEndpoint     = "endpoint"
	KeyAccessKey    = "access_key"
	KeyAccessSecret = "access_secret"

	dialTimeout = 30 * time.Second
)

var (
	hdfsRule = option.NewRuleBuilder().
			Required(option.Key(KeyDefaultFS).StringType().NoDefaultValue().WithDescription("namenode address, eg: hdfs://namenode:8020")).
			Optional(option.Key(KeyRemoteUser).StringType().NoDefaultValue().WithDescription("user to access hdfs as"), pathOption, schemaOption).
			MustBuild()

	ftpRule  = remoteRule(21)
	sftpRule = remoteRule(22)

	ossRule = option.NewRuleBuilder().
		Required(
			option.Key(KeyBucket).StringType().NoDefaultValue().WithDescription("bucket, eg: oss://my-bucket"),
			option.Key(KeyEndpoint).StringType().NoDefaultValue().WithDescription("oss endpoint"),
			option.Key(KeyAccessKey).StringType().NoDefaultValue().WithDescription("access key id"),
			option.Key(KeyAccessSecret).StringType().NoDefaultValue().WithDescription("access key secret"),
		).
		Optional(pathOption, schemaOption).
		MustBuild()
)

func remoteRule(defaultPort int) *option.Rule {
	return option.NewRuleBuilder().
		Required(
			option.Key(KeyHost).StringType().NoDefaultValue().WithDescription("server host"),
			option.Key(KeyUser).StringType().NoDefaultValue().WithDescription("login user"),
			option.Key(KeyPassword).StringType().NoDefaultValue().WithDescription("login password"),
		).
		Optional(option.Key(KeyPort).IntType().DefaultValue(defaultPort).WithDescription("server port"), pathOption, schemaOption).
		MustBuild()
}

func fileNames(infos []os.FileInfo) []string {
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

// hdfsFileSystem
type hdfsFileSystem struct {
	client *hdfs.Client
}

func connectHdfs(ctx context.Context, params config.Params) (fileSystem, error) {
	address := strings.TrimPrefix(params.String(KeyDefaultFS), "hdfs://")
	dialer := &net.Dialer{Timeout: dialTimeout}
	client, err := hdfs.NewClient(hdfs.ClientOptions{
		Addresses:        strings.Split(address, ","),
		User:             params.String(KeyRemoteUser),
		NamenodeDialFunc: dialer.DialContext,
		DatanodeDialFunc: dialer.DialContext,
	})
	if err != nil {
		return nil, err
	}
	return &hdfsFileSystem{client: client}, nil
}

func (h *hdfsFileSystem) ReadDir(ctx context.Context, dir string) ([]string, error) {
	infos, err := h.client.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return fileNames(infos), nil
}

func (h *hdfsFileSystem) Close() error {
	return h.client.Close()
}

// ftpFileSystem
type ftpFileSystem struct {
	conn *ftp.ServerConn
}

func address(params config.Params, defaultPort int) (string, error) {
	port, err := params.Int(KeyPort, defaultPort)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(params.String(KeyHost), strconv.Itoa(port)), nil
}

func connectFtp(ctx context.Context, params config.Params) (fileSystem, error) {
	addr, err := address(params, 21)
	if err != nil {
		return nil, err
	}
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(dialTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP server %s: %w", addr, err)
	}
	if err := conn.Login(params.String(KeyUser), params.String(KeyPassword)); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login to FTP server: %w", err)
	}
	return &ftpFileSystem{conn: conn}, nil
}

func (f *ftpFileSystem) ReadDir(ctx context.Context, dir string) ([]string, error) {
	entries, err := f.conn.List(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		names = append(names, e.Name)
	}
	return names, nil
}

func (f *ftpFileSystem) Close() error {
	return f.conn.Quit()
}

// sftpFileSystem
type sftpFileSystem struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func connectSftp(ctx context.Context, params config.Params) (fileSystem, error) {
	addr, err := address(params, 22)
	if err != nil {
		return nil, err
	}
	sshClient, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            params.String(KeyUser),
		Auth:            []ssh.AuthMethod{ssh.Password(params.String(KeyPassword))},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH server %s: %w", addr, err)
	}
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}
	return &sftpFileSystem{ssh: sshClient, sftp: sftpClient}, nil
}

func (s *sftpFileSystem) ReadDir(ctx context.Context, dir string) ([]string, error) {
	infos, err := s.sftp.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return fileNames(infos), nil
}

func (s *sftpFileSystem) Close() error {
	err := s.sftp.Close()
	if cerr := s.ssh.Close(); err == nil {
		err = cerr
	}
	return err
}

// ossFileSystem 以 "/" 为分隔符模拟目录
type ossFileSystem struct {
	client *oss.Client
	bucket string
}

func connectOss(ctx context.Context, params config.Params) (fileSystem, error) {
	provider := credentials.NewStaticCredentialsProvider(params.String(KeyAccessKey), params.String(KeyAccessSecret))
	cfg := oss.LoadDefaultConfig().
		WithCredentialsProvider(provider).
		WithRegion("").
		WithEndpoint(params.String(KeyEndpoint)).
		WithConnectTimeout(dialTimeout)
	bucket := strings.TrimSuffix(strings.TrimPrefix(params.String(KeyBucket), "oss://"), "/")
	return &ossFileSystem{client: oss.NewClient(cfg), bucket: bucket}, nil
}

func (o *ossFileSystem) ReadDir(ctx context.Context, dir string) ([]string, error) {
	prefix := strings.TrimPrefix(dir, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	req := &oss.ListObjectsV2Request{
		Bucket:    oss.Ptr(o.bucket),
		Prefix:    oss.Ptr(prefix),
		Delimiter: oss.Ptr("/"),
	}

	var names []string
	for {
		result, err := o.client.ListObjectsV2(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, p := range result.CommonPrefixes {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(oss.ToString(p.Prefix), prefix), "/"))
		}
		for _, obj := range result.Contents {
			if name := strings.TrimPrefix(oss.ToString(obj.Key), prefix); name != "" {
				names = append(names, name)
			}
		}
		if !result.IsTruncated {
			break
		}
		req.ContinuationToken = result.NextContinuationToken
	}
	return names, nil
}

func (o *ossFileSystem) Close() error {
	return nil
}
