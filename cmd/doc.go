// Package cmd implements the command-line interface for the Core
// connector. It provides a hierarchical command structure for calling
// services on a running Core, working with events, benchmarking and
// hosting a mock Core for development.
//
// The package is organized into several subpackages:
//
//   - call: Route a single service call to the Core and print the response
//   - events: Listen for pushed events and publish events
//   - perf: Performance testing tool measuring request latency
//   - serve: Start a mock Core process for development and testing
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See coreconn -help for a list of all commands.
package cmd
