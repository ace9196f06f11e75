// Package engine ties the rendering pieces together: it owns the
// directive table, the static event-preset table, and the per-instance
// node side table, and turns a template fragment into a live Instance
// whose tree tracks its reactive sources.
package engine

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/loop"
)

// Built-in directive attribute names.
const (
	DirIf   = "w-if"   // establishes a conditional group
	DirElif = "w-elif" // chained block, attaches to the nearest preceding group
	DirElse = "w-else" // terminal block
	DirOr   = "w-or"   // inline secondary condition on any block
	DirEach = "w-each" // windowed list reconciler
)

// NodeIDAttr carries the engine-assigned id used to address a node in
// event dispatch.
const NodeIDAttr = "data-loom-id"

// Event is one dispatched interaction.
type Event struct {
	Type string
	Node *html.Node
	Data map[string]any
}

// Handler reacts to one event on one node.
type Handler func(Event)

// DirectiveContext is what a directive handler sees for one node.
type DirectiveContext struct {
	Instance *Instance
	Node     *html.Node
	Name     string

	// Raw is the literal attribute value, marker tokens included.
	Raw string

	// Value is the sole interpolated value the attribute references, or
	// nil when it references none or several.
	Value any
}

// DirectiveFunc wires one node for one directive. An error marks the
// node errored without affecting siblings, unless it is a construction
// error, which aborts the render.
type DirectiveFunc func(*DirectiveContext) error

// defaultEvents is the static preset table: attribute name to event
// type, resolved at setup time.
var defaultEvents = map[string]string{
	"on-click":    "click",
	"on-dblclick": "dblclick",
	"on-input":    "input",
	"on-change":   "change",
	"on-submit":   "submit",
	"on-keydown":  "keydown",
	"on-keyup":    "keyup",
	"on-focus":    "focus",
	"on-blur":     "blur",
}

// Engine renders fragments into live instances. One engine can render
// any number of instances; each instance gets its own scope and side
// table.
type Engine struct {
	sched      loop.Scheduler
	logger     *slog.Logger
	directives map[string]DirectiveFunc
	events     map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine bound to a scheduler, with the built-in
// directives and event presets registered.
func New(sched loop.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		sched:      sched,
		directives: make(map[string]DirectiveFunc),
		events:     make(map[string]string, len(defaultEvents)),
	}
	for attr, typ := range defaultEvents {
		e.events[attr] = typ
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Register adds a custom directive. Shadowing a built-in name is
// rejected so the caller learns the registration never took.
func (e *Engine) Register(name string, fn DirectiveFunc) error {
	switch name {
	case DirIf, DirElif, DirElse, DirOr, DirEach:
		return errors.New("L007").WithDetail("%s", name)
	}
	e.directives[name] = fn
	return nil
}

// RegisterEvent adds an event preset: attribute name to event type.
func (e *Engine) RegisterEvent(attr, eventType string) {
	e.events[attr] = eventType
}

// IsDirective reports whether an attribute name is handled by the
// engine: built-in, custom, or an event preset.
func (e *Engine) IsDirective(name string) bool {
	switch name {
	case DirIf, DirElif, DirElse, DirOr, DirEach:
		return true
	}
	if _, ok := e.directives[name]; ok {
		return true
	}
	_, ok := e.events[name]
	return ok
}

// Scheduler returns the engine's scheduler.
func (e *Engine) Scheduler() loop.Scheduler {
	return e.sched
}
