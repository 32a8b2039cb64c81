package pulsar

import (
	"github.com/apache/pulsar-client-go/pulsaradmin"
	adminconfig "github.com/apache/pulsar-client-go/pulsaradmin/pkg/admin/config"
	"github.com/apache/pulsar-client-go/pulsaradmin/pkg/utils"
	"github.com/longkeyy/go-datasource/common/config"
)

type brokerAdmin struct {
	client pulsaradmin.Client
}

func connectAdmin(p config.Params) (admin, error) {
	client, err := pulsaradmin.NewClient(&adminconfig.Config{
		WebServiceURL: p.String(KeyAdminURL),
		Token:         p.String(KeyToken),
		HTTPTimeout:   requestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &brokerAdmin{client: client}, nil
}

func (a *brokerAdmin) Clusters() ([]string, error) {
	return a.client.Clusters().List()
}

func (a *brokerAdmin) Tenants() ([]string, error) {
	return a.client.Tenants().List()
}

func (a *brokerAdmin) Namespaces(tenant string) ([]string, error) {
	return a.client.Namespaces().GetNamespaces(tenant)
}

// Topics 分区 topic 与非分区 topic 合并返回
func (a *brokerAdmin) Topics(namespace string) ([]string, error) {
	ns, err := utils.GetNamespaceName(namespace)
	if err != nil {
		return nil, err
	}
	partitioned, nonPartitioned, err := a.client.Topics().List(*ns)
	if err != nil {
		return nil, err
	}
	return append(partitioned, nonPartitioned...), nil
}

func (a *brokerAdmin) Schema(topic string) (*utils.SchemaInfo, error) {
	return a.client.Schemas().GetSchemaInfo(topic)
}
