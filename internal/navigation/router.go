package navigation

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/events"
	"github.com/smartbedding/panel/internal/models"
)

// Navigator moves the client between views.
type Navigator interface {
	Navigate(view models.View)
}

// Router tracks the view the client is currently showing and notifies
// subscribers whenever it changes.
type Router struct {
	mu      sync.RWMutex
	current models.View
	changes *events.Feed[models.View]
}

func NewRouter() *Router {
	return &Router{
		current: models.ViewEntry,
		changes: events.NewFeed[models.View](),
	}
}

func (r *Router) Navigate(view models.View) {
	r.mu.Lock()
	previous := r.current
	r.current = view
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"from": previous,
		"to":   view,
	}).Debugln("Navigating")

	r.changes.Publish(view)
}

func (r *Router) Current() models.View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Changes subscribes to view changes.
func (r *Router) Changes() (<-chan models.View, func()) {
	return r.changes.Subscribe()
}

func (r *Router) Close() {
	r.changes.Close()
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(view models.View)

func (f NavigatorFunc) Navigate(view models.View) {
	f(view)
}
