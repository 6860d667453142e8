package store

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	appcfg "github.com/tartampluch/go-birthday-sync/internal/config"
)

// Memory is a map-backed StateStore used in tests. It counts mutations so
// convergence properties can be asserted.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte

	// Mutations counts every write and delete that actually changed
	// state since the last ResetCounters call.
	Mutations int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// ResetCounters clears the mutation counter, typically between runs.
func (m *Memory) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mutations = 0
}

// Get returns the raw stored bytes for a path, if present.
func (m *Memory) Get(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[path]
	return v, ok
}

func (m *Memory) EnsureNode(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[path]; !ok {
		m.data[path] = nil
		m.Mutations++
	}
	return nil
}

func (m *Memory) WriteValue(path string, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.data[path]; ok && bytes.Equal(current, data) {
		return false, nil
	}
	m.data[path] = data
	m.Mutations++
	return true, nil
}

func (m *Memory) List(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) DeleteTree(path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for k := range m.data {
		if k == path || strings.HasPrefix(k, path+appcfg.PathSeparator) {
			delete(m.data, k)
			deleted++
		}
	}
	m.Mutations += deleted
	return deleted, nil
}
