// Package adapter defines the boundary between the CRUD engine and a Cassandra
// session provider.
//
// The engine never talks to a driver directly. Everything it needs from a live
// cluster goes through the Session interface:
//
//   - Execute runs one Statement and returns at most one page of rows
//   - DescribeKeyspaces lists keyspaces with their table names
//   - DescribeTable returns raw column metadata for one table
//
// Statements are built by the query package and rendered to CQL text with bind
// markers by Statement.CQL, so every provider binds values the same way.
//
// # Errors
//
// All error kinds surfaced to the presentation layer live in this package.
// Each typed error matches a sentinel through errors.Is:
//
//	if errors.Is(err, adapter.ErrFullScanRequired) {
//	    // ask the user to acknowledge the scan and retry
//	}
package adapter
