// Package domain contains the core domain entities and value objects for
// wearguard.
//
// This package represents the innermost layer of the architecture. It has
// no dependencies on infrastructure concerns (MQTT, file system, logging)
// and contains only pure types and business rules.
//
// # Entities
//
//   - [SensorSample]: A single reading from one of the device sensors
//   - [Alert]: A raised medical alert with level and unique id
//   - [DeviceState]: The operational state of the wearable
//   - [DeviceStats]: A snapshot of device counters and health values
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
