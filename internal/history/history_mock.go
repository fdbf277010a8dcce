package history

import (
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
	"github.com/stretchr/testify/mock"
)

// MockHistoryManager is a mock implementation of HistoryManager for testing.
type MockHistoryManager struct {
	mock.Mock
}

var _ contract.HistoryManager = &MockHistoryManager{} // Compile-time check

// GetHistoryStore implements the HistoryManager interface.
func (m *MockHistoryManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// Record implements the HistoryStore interface.
func (m *MockHistoryStore) Record(record schema.OperationRecord) error {
	return m.Called(record).Error(0)
}

// List implements the HistoryStore interface.
func (m *MockHistoryStore) List(limit int) ([]schema.OperationRecord, error) {
	args := m.Called(limit)
	records, _ := args.Get(0).([]schema.OperationRecord)
	return records, args.Error(1)
}

// GetAllOperations implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllOperations() ([]schema.OperationRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.OperationRecord)
	return records, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	return m.Called().Error(0)
}
