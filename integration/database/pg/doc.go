// Package pg provides the PostgreSQL persistence layer: pooled connections
// with startup retry, goose migrations, health checking, and the store
// implementations for tenants, operators, and the product catalog.
package pg
