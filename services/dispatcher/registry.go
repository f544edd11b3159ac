package dispatcher

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"chatcore/models"
)

// Handler consumes one classified and resolved message. In parallel fan-out mode the same
// MessageContext is shared by all handlers of a run and must be treated as read-only.
type Handler func(ctx context.Context, msgCtx *models.MessageContext) error

// Subscription is a named handler bound to one category.
type Subscription struct {
	Name     string
	Category models.MessageCategory
	Handler  Handler
}

// Registry is an append-only, thread-safe list of subscriptions keyed by category.
type Registry struct {
	mu   sync.RWMutex
	subs map[models.MessageCategory][]Subscription
	n    int
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[models.MessageCategory][]Subscription)}
}

// Subscribe appends handler for category. Handlers run in subscription order in sequential mode.
func (r *Registry) Subscribe(category models.MessageCategory, name string, handler Handler) error {
	if !category.IsValid() {
		return fmt.Errorf("invalid message category %q", category)
	}
	if handler == nil {
		return fmt.Errorf("handler for %s cannot be nil", category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.n++
	if name == "" {
		name = fmt.Sprintf("handler-%d", r.n)
	}
	r.subs[category] = append(r.subs[category], Subscription{
		Name:     name,
		Category: category,
		Handler:  handler,
	})
	return nil
}

// SubscribeAll registers the same handler for several categories.
func (r *Registry) SubscribeAll(name string, handler Handler, categories ...models.MessageCategory) error {
	for _, category := range categories {
		if err := r.Subscribe(category, name, handler); err != nil {
			return err
		}
	}
	return nil
}

// Handlers returns a snapshot of the subscriptions for category.
func (r *Registry) Handlers(category models.MessageCategory) []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.subs[category])
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, subs := range r.subs {
		total += len(subs)
	}
	return total
}
