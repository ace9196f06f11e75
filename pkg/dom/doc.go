// Package dom is a thin layer over golang.org/x/net/html nodes: fragment
// parsing with an enclosing-context element, attach/detach/replace
// helpers, attribute access, slot markers for logical ordering, the
// placeable coercion that turns arbitrary values into renderable nodes,
// and the content-model table for structurally constrained containers.
//
// The engine treats *html.Node as its live element tree; nothing here is
// a virtual layer that gets diffed later.
package dom
