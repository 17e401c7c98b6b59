package proxmox

import "context"

// MockClient is a func-field fake of API for tests. Methods without a
// configured func return zero values.
type MockClient struct {
	ListNodesFunc           func(ctx context.Context) ([]Node, error)
	ListContainersFunc      func(ctx context.Context, node string) ([]Container, error)
	CloneContainerFunc      func(ctx context.Context, node string, templateID, newID int, hostname string) error
	CreateContainerFunc     func(ctx context.Context, node string, opts CreateOptions) error
	StartContainerFunc      func(ctx context.Context, node string, vmid int) error
	ContainerStatusFunc     func(ctx context.Context, node string, vmid int) (ContainerStatus, error)
	ContainerInterfacesFunc func(ctx context.Context, node string, vmid int) ([]NetworkInterface, error)
	ListStorageFunc         func(ctx context.Context, node string) ([]StoragePool, error)
	ListStorageContentFunc  func(ctx context.Context, node, storage string) ([]Volume, error)
	NextIDFunc              func(ctx context.Context) (int, error)
}

var _ API = (*MockClient)(nil)

func (m *MockClient) ListNodes(ctx context.Context) ([]Node, error) {
	if m.ListNodesFunc != nil {
		return m.ListNodesFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) ListContainers(ctx context.Context, node string) ([]Container, error) {
	if m.ListContainersFunc != nil {
		return m.ListContainersFunc(ctx, node)
	}
	return nil, nil
}

func (m *MockClient) CloneContainer(ctx context.Context, node string, templateID, newID int, hostname string) error {
	if m.CloneContainerFunc != nil {
		return m.CloneContainerFunc(ctx, node, templateID, newID, hostname)
	}
	return nil
}

func (m *MockClient) CreateContainer(ctx context.Context, node string, opts CreateOptions) error {
	if m.CreateContainerFunc != nil {
		return m.CreateContainerFunc(ctx, node, opts)
	}
	return nil
}

func (m *MockClient) StartContainer(ctx context.Context, node string, vmid int) error {
	if m.StartContainerFunc != nil {
		return m.StartContainerFunc(ctx, node, vmid)
	}
	return nil
}

func (m *MockClient) ContainerStatus(ctx context.Context, node string, vmid int) (ContainerStatus, error) {
	if m.ContainerStatusFunc != nil {
		return m.ContainerStatusFunc(ctx, node, vmid)
	}
	return ContainerStatus{}, nil
}

func (m *MockClient) ContainerInterfaces(ctx context.Context, node string, vmid int) ([]NetworkInterface, error) {
	if m.ContainerInterfacesFunc != nil {
		return m.ContainerInterfacesFunc(ctx, node, vmid)
	}
	return nil, nil
}

func (m *MockClient) ListStorage(ctx context.Context, node string) ([]StoragePool, error) {
	if m.ListStorageFunc != nil {
		return m.ListStorageFunc(ctx, node)
	}
	return nil, nil
}

func (m *MockClient) ListStorageContent(ctx context.Context, node, storage string) ([]Volume, error) {
	if m.ListStorageContentFunc != nil {
		return m.ListStorageContentFunc(ctx, node, storage)
	}
	return nil, nil
}

func (m *MockClient) NextID(ctx context.Context) (int, error) {
	if m.NextIDFunc != nil {
		return m.NextIDFunc(ctx)
	}
	return 0, nil
}
