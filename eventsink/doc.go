// Package eventsink forwards committed registry events to the outside world.
// Sinks see events after the transaction committed, so a failing sink never
// changes a transaction outcome.
package eventsink
