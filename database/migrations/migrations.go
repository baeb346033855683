// Package migrations registers the schema migrations. Each file calls
// migration.Register from init(); cmd/wellness imports the package for
// its side effects.
package migrations
