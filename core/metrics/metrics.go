// Package metrics declares the instrumentation surface used by the device
// runtime. Core packages depend only on these interfaces; a backend such as
// adapters/prometheus provides the implementation.
package metrics

// Timer measures one operation. Call ObserveDuration when it completes:
//
//	defer m.TransactionDuration(name).ObserveDuration()
type Timer interface {
	ObserveDuration()
}
