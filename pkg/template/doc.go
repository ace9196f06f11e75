// Package template turns a markup fragment (literal string segments
// interleaved with interpolated values) into a detached element tree
// with typed placeholders, then maps that tree's nodes into the buckets
// the rest of the engine consumes: placeholders, named references,
// directive attributes, and reactive attribute sites.
//
// Classification of each interpolation site (tag, attribute value, or
// content, plus the nearest enclosing tag) is done by a single forward
// lexer that consumes the whole template once, maintaining an open-tag
// stack as it goes. Primitive values are substituted directly into the
// markup; non-primitive values become synthetic markers that survive
// parsing, using a structurally compatible marker tag inside containers
// with strict content models.
package template
