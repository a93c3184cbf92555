package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"songstory-server/internal/model"
	"songstory-server/internal/repository"
)

// MockRecordStore is a mock type for the RecordStore type
type MockRecordStore struct {
	mock.Mock
}

// CreateRecord provides a mock function with given fields: ctx, record
func (_m *MockRecordStore) CreateRecord(ctx context.Context, record model.HistoryRecord) error {
	ret := _m.Called(ctx, record)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.HistoryRecord) error); ok {
		r0 = rf(ctx, record)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ListRecords provides a mock function with given fields: ctx
func (_m *MockRecordStore) ListRecords(ctx context.Context) ([]model.HistoryRecord, error) {
	ret := _m.Called(ctx)

	var r0 []model.HistoryRecord
	if rf, ok := ret.Get(0).(func(context.Context) []model.HistoryRecord); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.HistoryRecord)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockRecordStore creates a new instance of MockRecordStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockRecordStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRecordStore {
	m := &MockRecordStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ repository.RecordStore = (*MockRecordStore)(nil)
