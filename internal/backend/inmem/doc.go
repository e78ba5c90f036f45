// Package inmem is an in-process implementation of the backend contracts.
//
// It keeps every table in memory behind a single mutex and pushes full
// table snapshots to subscribers after each mutation, the way the hosted
// backend's reactive queries do. Time and identity sources are injectable
// so scenario runs are reproducible.
//
// Subscriber channels are buffered. A subscriber that falls a full buffer
// behind misses snapshots (logged at Warn); since every snapshot is a
// complete table, the next delivered one restores consistency.
package inmem
