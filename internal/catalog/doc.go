// Package catalog is the registry of constructible types.
//
// It maps abstract type identifiers (e.g. "Engine") to the concrete
// implementations that satisfy them, together with each implementation's
// parameter table and factory. Modules populate it explicitly at startup
// through the Module interface; a Catalog is passed to whatever needs
// resolution instead of living in a package-level variable.
package catalog
