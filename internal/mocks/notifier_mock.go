package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"songstory-server/internal/messaging"
	"songstory-server/internal/model"
)

// MockNotifier is a mock type for the Notifier type
type MockNotifier struct {
	mock.Mock
}

// NotifyStoryGenerated provides a mock function with given fields: ctx, event
func (_m *MockNotifier) NotifyStoryGenerated(ctx context.Context, event model.StoryGeneratedEvent) error {
	ret := _m.Called(ctx, event)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.StoryGeneratedEvent) error); ok {
		r0 = rf(ctx, event)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockNotifier creates a new instance of MockNotifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNotifier {
	m := &MockNotifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ messaging.Notifier = (*MockNotifier)(nil)
