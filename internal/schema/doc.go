// Package schema declares the constructor parameters of concrete types.
//
// Every constructible type publishes an ordered table of Param descriptors at
// registration time. The table is the only source of parameter names and
// kinds; nothing is discovered through reflection. Factories receive the
// values chosen for one combination through Args, keyed by the same names.
package schema
