// Package tree binds candidate sets to parameter schemas, forming the
// configuration tree that describes a whole sweep space.
//
// A tree is built once from a catalog, a root abstract type and Bindings. It
// has three node variants: scalars hold candidate values, composites hold the
// chosen implementations of an abstract type together with each
// implementation's child nodes, and arrays hold one element template and the
// candidate lengths. Array elements are homogeneous, so all of them share the
// element template and its bindings.
//
// Bindings are keyed by template path: `engine.bore`, `wheels[].pressure`.
// The root composite is keyed by the empty string.
//
// Construction validates eagerly. Every leaf has at least one candidate when
// Build returns; otherwise it fails with a sweeperr error and nothing is
// enumerated.
package tree
