package utils

import "github.com/stretchr/testify/mock"

// MockLogger records calls for assertions in tests. Set Quiet to accept any
// call without registering expectations.
type MockLogger struct {
	mock.Mock
	Quiet            bool
	ErrorCallCount   int
	WarnCallCount    int
	LastErrorMessage string
	LastWarnMessage  string
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	if m.Quiet {
		return
	}
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	if m.Quiet {
		return
	}
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.WarnCallCount++
	m.LastWarnMessage = msg
	if m.Quiet {
		return
	}
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.ErrorCallCount++
	m.LastErrorMessage = msg
	if m.Quiet {
		return
	}
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) SetLevel(level LogLevel) {
	if m.Quiet {
		return
	}
	m.Called(level)
}
