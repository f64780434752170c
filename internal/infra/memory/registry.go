package memory

import (
	"sync"

	"trivia-live-service/internal/app"
)

// Registry is the in-process implementation of app.CoordinatorRegistry,
// indexing live coordinators by session id and join code.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*app.Coordinator
	byCode map[string]*app.Coordinator
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*app.Coordinator),
		byCode: make(map[string]*app.Coordinator),
	}
}

func (r *Registry) Register(c *app.Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID()] = c
	r.byCode[c.Code()] = c
}

func (r *Registry) ByID(id string) (*app.Coordinator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

func (r *Registry) ByCode(code string) (*app.Coordinator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byCode[code]
	return c, ok
}

func (r *Registry) CodeInUse(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byCode[code]
	return ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return
	}
	c.Close()
	delete(r.byCode, c.Code())
	delete(r.byID, id)
}

// Len reports how many sessions this process coordinates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
