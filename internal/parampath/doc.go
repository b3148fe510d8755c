/*
Package parampath provides a structured representation for the location of a
parameter inside a configuration tree, based on the canonical format `path`.

The format is a dot-separated sequence of segments, e.g. `engine.bore` or
`wheels[2].pressure`. A segment may carry a concrete element index (`[2]`) or
the element wildcard (`[]`), which is how bindings address every element of an
array at once. The empty string is the root of the tree.
*/
package parampath
