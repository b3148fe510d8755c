// Package enumerator walks a configuration tree depth-first and yields one
// materialized instance per combination.
//
// Order is fixed: parameters are visited in declaration order with the first
// parameter varying slowest, and a composite enumerates the whole subtree of
// one implementation before moving to the next. Every node memoizes the list
// of sub-selections per local choice once a full pass over that choice has
// completed, so later sibling iterations and later passes replay the cached
// list instead of walking the subtree again. Objects are always built fresh
// from a selection by calling the registered factories.
package enumerator
