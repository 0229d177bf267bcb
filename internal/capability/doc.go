// Package capability implements explicit capability tables.
//
// A Table maps (namespace, level, name) to an installed value. Instance-level
// capabilities receive the value they are called on as receiver, static ones
// receive the namespace itself. Tables are plain values: each test or
// subsystem can build its own instead of sharing process state.
//
// Install is total. It never fails, and re-installing a name overwrites the
// previous implementation (last write wins).
package capability
