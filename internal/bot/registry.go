package bot

import (
	"fmt"

	"github.com/garyellow/medreminder-linebot-go/internal/action"
)

// Registry maps action verbs to handlers.
type Registry struct {
	byVerb map[action.Verb]Handler
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{
		byVerb: make(map[action.Verb]Handler),
	}
}

// Register adds a handler. Registering two handlers for one verb is a
// wiring bug and panics.
func (r *Registry) Register(h Handler) {
	for _, v := range h.Verbs() {
		if prev, ok := r.byVerb[v]; ok {
			panic(fmt.Sprintf("bot: verb %q registered by both %s and %s", v, prev.Name(), h.Name()))
		}
		r.byVerb[v] = h
	}
}

// Lookup returns the handler for a verb.
func (r *Registry) Lookup(v action.Verb) (Handler, bool) {
	h, ok := r.byVerb[v]
	return h, ok
}
