// Package catalog is the fixed vocabulary of processing elements a graph
// may contain.
//
// Each Element names an engine factory, its Kind, a closed parameter
// schema, its port templates and the counters it exposes. Parameters not
// in the schema, values of the wrong type and writes to read-only
// parameters are rejected before the engine ever sees them.
package catalog
