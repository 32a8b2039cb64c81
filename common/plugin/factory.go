package plugin

import (
	"fmt"
	"sync"

	"github.com/longkeyy/go-datasource/common/pool"
)

// Environment 创建channel时注入的共享资源
type Environment struct {
	// Pools 进程级连接池缓存，只有池化的channel使用
	Pools *pool.Cache
}

// Factory 数据源插件工厂，一个工厂可以声明多个插件名，共享同一个channel
type Factory interface {
	FactoryIdentifier() string
	SupportedDataSources() []Descriptor
	CreateChannel(env Environment) MetadataChannel
}

var (
	factoriesMu sync.RWMutex
	factories   []Factory
	factoryIDs  = make(map[string]struct{})
)

// Register 注册编译进来的插件工厂，在插件包的 init 中调用。
// 同一个 identifier 重复注册或 factory 为 nil 时 panic。
func Register(factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if factory == nil {
		panic("plugin: Register factory is nil")
	}
	id := factory.FactoryIdentifier()
	if _, exists := factoryIDs[id]; exists {
		panic(fmt.Sprintf("plugin: factory '%s' already registered", id))
	}
	factoryIDs[id] = struct{}{}
	factories = append(factories, factory)
}

// RegisteredFactories 按注册顺序返回已注册的工厂
func RegisteredFactories() []Factory {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	list := make([]Factory, len(factories))
	copy(list, factories)
	return list
}
