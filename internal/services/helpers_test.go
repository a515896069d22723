package services

import (
	"context"
	"sync"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore is a mock implementation of store.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) Get(ctx context.Context, accessKey string) (*models.Account, error) {
	args := m.Called(ctx, accessKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountStore) FindByCustomerID(ctx context.Context, customerID string) (*models.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountStore) Update(ctx context.Context, accessKey string, update store.AccountUpdate) error {
	args := m.Called(ctx, accessKey, update)
	return args.Error(0)
}

func (m *MockAccountStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// memoryStore is a stateful store.AccountStore that counts writes.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	writes   int
}

func newMemoryStore(accounts ...models.Account) *memoryStore {
	s := &memoryStore{accounts: map[string]models.Account{}}
	for _, acc := range accounts {
		s.accounts[acc.AccessKey] = acc
	}
	return s
}

func (s *memoryStore) Get(_ context.Context, accessKey string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accessKey]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return &acc, nil
}

func (s *memoryStore) FindByCustomerID(_ context.Context, customerID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.StripeCustomerID == customerID {
			return &acc, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (s *memoryStore) Update(_ context.Context, accessKey string, update store.AccountUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accessKey]
	if !ok {
		return store.ErrAccountNotFound
	}
	update.Apply(&acc)
	s.accounts[accessKey] = acc
	s.writes++
	return nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }

func (s *memoryStore) account(accessKey string) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[accessKey]
}

func (s *memoryStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
