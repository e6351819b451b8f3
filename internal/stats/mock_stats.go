package stats

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockStatsUpdater struct {
	mock.Mock
}

func (m *MockStatsUpdater) Incr(name, kind string) {
	m.Called(name, kind)
}
func (m *MockStatsUpdater) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.Called(method, route, status, elapsed)
}
