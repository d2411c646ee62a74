package domain

import (
	"context"
	"sync"
)

// MockProductRepository is an in-memory ProductRepository for tests.
// GetProductFunc and GetVariantFunc override the map lookups when set.
type MockProductRepository struct {
	GetProductFunc func(ctx context.Context, productID string) (*Product, error)
	GetVariantFunc func(ctx context.Context, productID, variantID string) (*ProductVariant, error)

	mu       sync.RWMutex
	products map[string]Product
	variants map[string]ProductVariant
}

// NewMockProductRepository creates an empty repository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]Product),
		variants: make(map[string]ProductVariant),
	}
}

// AddProduct stores p, replacing any product with the same ID.
func (m *MockProductRepository) AddProduct(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// AddVariant stores v under productID.
func (m *MockProductRepository) AddVariant(productID string, v ProductVariant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[productID+"/"+v.ID] = v
}

// GetProduct implements ProductRepository.
func (m *MockProductRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, productID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, NotFound("product.get", "product", productID)
	}
	return &p, nil
}

// GetVariant implements ProductRepository.
func (m *MockProductRepository) GetVariant(ctx context.Context, productID, variantID string) (*ProductVariant, error) {
	if m.GetVariantFunc != nil {
		return m.GetVariantFunc(ctx, productID, variantID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.variants[productID+"/"+variantID]
	if !ok {
		return nil, NotFound("product.variant", "variant", variantID)
	}
	return &v, nil
}

// MockAddressRepository is an in-memory AddressRepository for tests.
type MockAddressRepository struct {
	mu        sync.RWMutex
	addresses map[string][]Address
}

// NewMockAddressRepository creates an empty repository.
func NewMockAddressRepository() *MockAddressRepository {
	return &MockAddressRepository{addresses: make(map[string][]Address)}
}

// Add saves addr for userID.
func (m *MockAddressRepository) Add(userID string, addr Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[userID] = append(m.addresses[userID], addr)
}

// GetAddress implements AddressRepository.
func (m *MockAddressRepository) GetAddress(ctx context.Context, userID, addressID string) (*Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.addresses[userID] {
		if a.ID == addressID {
			return &a, nil
		}
	}
	return nil, NotFound("address.get", "address", addressID)
}

// ListAddresses implements AddressRepository.
func (m *MockAddressRepository) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Address(nil), m.addresses[userID]...), nil
}

var (
	_ ProductRepository = (*MockProductRepository)(nil)
	_ AddressRepository = (*MockAddressRepository)(nil)
)
