package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"songstory-server/internal/clients"
	"songstory-server/internal/model"
)

// MockLyricsClient is a mock type for the LyricsClient type
type MockLyricsClient struct {
	mock.Mock
}

// GenerateLyrics provides a mock function with given fields: ctx, prompt
func (_m *MockLyricsClient) GenerateLyrics(ctx context.Context, prompt string) clients.Result[string] {
	ret := _m.Called(ctx, prompt)

	if rf, ok := ret.Get(0).(func(context.Context, string) clients.Result[string]); ok {
		return rf(ctx, prompt)
	}
	return ret.Get(0).(clients.Result[string])
}

// NewMockLyricsClient creates a new instance of MockLyricsClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockLyricsClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLyricsClient {
	m := &MockLyricsClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ clients.LyricsClient = (*MockLyricsClient)(nil)

// MockImageClient is a mock type for the ImageClient type
type MockImageClient struct {
	mock.Mock
}

// GenerateImage provides a mock function with given fields: ctx, prompt
func (_m *MockImageClient) GenerateImage(ctx context.Context, prompt string) clients.Result[string] {
	ret := _m.Called(ctx, prompt)

	if rf, ok := ret.Get(0).(func(context.Context, string) clients.Result[string]); ok {
		return rf(ctx, prompt)
	}
	return ret.Get(0).(clients.Result[string])
}

// NewMockImageClient creates a new instance of MockImageClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageClient {
	m := &MockImageClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ clients.ImageClient = (*MockImageClient)(nil)

// MockMusicClient is a mock type for the MusicClient type
type MockMusicClient struct {
	mock.Mock
}

// SubmitAudioJob provides a mock function with given fields: ctx, payload
func (_m *MockMusicClient) SubmitAudioJob(ctx context.Context, payload clients.AudioJobPayload) clients.Result[string] {
	ret := _m.Called(ctx, payload)

	if rf, ok := ret.Get(0).(func(context.Context, clients.AudioJobPayload) clients.Result[string]); ok {
		return rf(ctx, payload)
	}
	return ret.Get(0).(clients.Result[string])
}

// PollAudioJob provides a mock function with given fields: ctx, id
func (_m *MockMusicClient) PollAudioJob(ctx context.Context, id string) clients.Result[model.AudioJob] {
	ret := _m.Called(ctx, id)

	if rf, ok := ret.Get(0).(func(context.Context, string) clients.Result[model.AudioJob]); ok {
		return rf(ctx, id)
	}
	return ret.Get(0).(clients.Result[model.AudioJob])
}

// NewMockMusicClient creates a new instance of MockMusicClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockMusicClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMusicClient {
	m := &MockMusicClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ clients.MusicClient = (*MockMusicClient)(nil)
