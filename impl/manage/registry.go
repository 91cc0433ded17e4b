package manage

import (
	"errors"
	"slices"
	"sync"

	"github.com/paranoidxc/JournalDB/face"
)

var ErrAlreadyRegistered = errors.New("NAME IS ALREADY REGISTERED")

// Registry 管理句柄的注册表，由调用方创建并通过 Options 注入
type Registry struct {
	mu    sync.RWMutex
	items map[string]face.Management
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]face.Management)}
}

func (r *Registry) Register(name string, m face.Management) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[name]; ok {
		return ErrAlreadyRegistered
	}
	r.items[name] = m
	return nil
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, name)
}

func (r *Registry) Get(name string) (face.Management, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.items[name]
	return m, ok
}

// Names 按字典序返回已注册的名字
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
