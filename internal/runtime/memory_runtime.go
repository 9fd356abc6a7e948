package runtime

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/strohel/locations-imgtest/internal/logger"
)

// MemoryRuntime is a ContainerRuntime implementation that keeps state in
// memory. It lets harness flows run in tests or development without a Docker
// daemon: logs are scripted and stats are synthesized.
type MemoryRuntime struct {
	mu      sync.Mutex
	seq     int
	running map[string]bool
	logs    map[string]string

	statsInterval time.Duration
	statsErr      error
	statsErrAfter int
}

func NewMemoryRuntime() *MemoryRuntime {
	return &MemoryRuntime{
		running:       map[string]bool{},
		logs:          map[string]string{},
		statsInterval: 10 * time.Millisecond,
	}
}

func (m *MemoryRuntime) Run(_ context.Context, spec RunSpec) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("mem-%d", m.seq)
	m.running[id] = true
	// Emulate the service's startup log line mentioning the listening port.
	m.logs[id] = fmt.Sprintf("Listening on 0.0.0.0:%d\n", spec.Port)
	logger.WithComponent("memory-runtime").Debugf("started container %s from image %s", id, spec.Image)
	return id, nil
}

func (m *MemoryRuntime) Kill(_ context.Context, containerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.running[containerID]; !ok {
		return fmt.Errorf("container %s not found", containerID)
	}
	logger.WithComponent("memory-runtime").Debugf("killing container %s", containerID)
	m.running[containerID] = false
	return nil
}

func (m *MemoryRuntime) Logs(_ context.Context, containerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.logs[containerID]
	if !ok {
		return "", fmt.Errorf("container %s not found", containerID)
	}
	return out, nil
}

func (m *MemoryRuntime) Stats(_ context.Context, containerID string) (StatsStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.running[containerID]; !ok {
		return nil, fmt.Errorf("container %s not found", containerID)
	}
	return &memStatsStream{
		interval: m.statsInterval,
		err:      m.statsErr,
		errAfter: m.statsErrAfter,
	}, nil
}

func (m *MemoryRuntime) Close() error {
	return nil
}

// SetLogs replaces the scripted log output of a container.
func (m *MemoryRuntime) SetLogs(containerID, out string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[containerID] = out
}

// AppendLogs adds a line to the scripted log output of a container. A fake
// service under test can use it to emulate per-request logging.
func (m *MemoryRuntime) AppendLogs(containerID, line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[containerID] += line
}

// IsRunning reports the remembered state of a container.
func (m *MemoryRuntime) IsRunning(containerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[containerID]
}

// SetStatsInterval overrides the synthetic sample delivery interval.
func (m *MemoryRuntime) SetStatsInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsInterval = d
}

// InjectStatsError makes subsequently opened stats streams fail with err once
// after samples have been delivered.
func (m *MemoryRuntime) InjectStatsError(err error, after int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsErr = err
	m.statsErrAfter = after
}

type memStatsStream struct {
	mu       sync.Mutex
	closed   bool
	n        int
	interval time.Duration
	err      error
	errAfter int
}

func (s *memStatsStream) Next() (Sample, error) {
	time.Sleep(s.interval)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Sample{}, io.EOF
	}
	if s.err != nil && s.n >= s.errAfter {
		return Sample{}, s.err
	}
	s.n++
	return Sample{
		CPUTotalMs:    float64(s.n) * 5,
		MemUsageMB:    42,
		MemMaxUsageMB: 42,
	}, nil
}

func (s *memStatsStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
