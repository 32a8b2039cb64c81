package plugin

// StructuralType 数据源的结构类型
type StructuralType string

const (
	Database       StructuralType = "DATABASE"
	FakeConnection StructuralType = "FAKE_CONNECTION"
	NoStructured   StructuralType = "NO_STRUCTURED"
	DataLake       StructuralType = "DATA_LAKE"
	MessageQueue   StructuralType = "MESSAGE_QUEUE"
	File           StructuralType = "FILE"
)

// DefaultVersion 插件默认版本
const DefaultVersion = "1.0.0"

// Descriptor 插件描述信息，发现时创建，之后只读
type Descriptor struct {
	Name                 string         `json:"name"`
	Icon                 string         `json:"icon"`
	Version              string         `json:"version"`
	Type                 StructuralType `json:"type"`
	SupportVirtualTables bool           `json:"supportVirtualTables"`
}

// NewDescriptor 使用插件名作为图标名，版本为 DefaultVersion
func NewDescriptor(name string, t StructuralType) Descriptor {
	return Descriptor{
		Name:    name,
		Icon:    name,
		Version: DefaultVersion,
		Type:    t,
	}
}

// WithVirtualTables 返回支持虚拟表的副本
func (d Descriptor) WithVirtualTables() Descriptor {
	d.SupportVirtualTables = true
	return d
}
