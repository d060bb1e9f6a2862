// Package domain contains the core entities and value objects for guardian.
//
// This package represents the innermost layer of the application. It has
// no dependencies on infrastructure concerns (HTTP, file system, logging)
// and contains only pure business data and rules.
//
// # Entities
//
//   - [UserFact]: An ephemeral view of an account, rebuilt on every scan
//   - [Action]: A side effect the lifecycle engine asks the daemon to apply
//   - [Removal]: The persisted outcome of a removal attempt
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
