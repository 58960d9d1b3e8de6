// Package core defines the domain model for the Vigil alert engine.
//
// The core package provides:
//   - Domain types (Event, Rule, Condition, Alert)
//   - The alert status state machine and its transition rules
//   - Filter and statistics types shared by storage and API layers
//   - A generic worker pool used for asynchronous notification dispatch
//
// Service interfaces are defined where they are consumed (service and api
// packages), not here. Types in this package carry no behavior beyond
// validation and state transitions; orchestration lives in the service layer.
package core
