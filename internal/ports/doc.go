// Package ports defines the interfaces (ports) that connect the
// application core to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the
// boundaries between the application core and the outside world. They
// define what the core needs from external systems without specifying
// how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Stager]: Accumulates an in-progress firmware image
//   - [Notifier]: Pushes single-byte status replies to the transport
//   - [AlertSink]: Delivers raised alerts to an external consumer
//   - [ImageRepository]: Persists a validated firmware image
//
// The transport side (BLE, MQTT, serial) is a collaborator: it pushes
// raw packet bytes into the update controller and receives status
// bytes through Notifier. Nothing in the core observes whether a
// notification was actually delivered.
package ports
