package identity

import (
	"sync"

	"github.com/google/uuid"
)

// Listeners is a registry of principal-change callbacks. Callbacks are
// invoked outside the registry lock so they may call back into a Provider.
type Listeners struct {
	lock sync.Mutex
	fns  map[uuid.UUID]func(*Principal)
}

func NewListeners() *Listeners {
	return &Listeners{fns: make(map[uuid.UUID]func(*Principal))}
}

// Add registers fn and returns an idempotent unsubscribe function.
func (l *Listeners) Add(fn func(*Principal)) func() {
	id := uuid.New()
	l.lock.Lock()
	l.fns[id] = fn
	l.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.lock.Lock()
			delete(l.fns, id)
			l.lock.Unlock()
		})
	}
}

func (l *Listeners) Notify(p *Principal) {
	l.lock.Lock()
	fns := make([]func(*Principal), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.lock.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

func (l *Listeners) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.fns)
}
