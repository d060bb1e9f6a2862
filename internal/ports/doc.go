// Package ports defines the interfaces that connect the lifecycle core
// to infrastructure adapters.
//
// The core (engine, app) depends only on these capability sets, never on
// a concrete transport or SDK. Adapters in internal/providers implement
// them against real services; tests implement them in-memory.
//
//   - [AccessProvider]: enumerates and removes accounts on the media service
//   - [ActivityProvider]: reports last-activity timestamps per account
//   - [Notifier]: delivers user/admin notifications
//   - [AlertChannel]: best-effort operational alerts (failures only logged)
package ports
