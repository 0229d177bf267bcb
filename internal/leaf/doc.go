// Package leaf holds the small utilities that bootstrap installs onto the
// capability namespaces: casing and word splitting for text, sequence
// helpers, deep clone and equality, numeric coercion, a bounded cache,
// pattern constants and a memory reporter.
//
// Every function here is an ordinary Go function. None of them know about
// capability tables; bootstrap decides how each one is bound.
package leaf
