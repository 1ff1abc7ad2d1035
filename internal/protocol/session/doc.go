// Package session owns one logical connection to the server.
//
// Ownership boundary:
// - connection state machine and the TLS channel
// - sequence assignment and the pending-request set
// - inbound frame pump (assembler -> decompress -> decode -> resolve)
// - keepalive loop
//
// All pending-set and state mutation happens under one mutex; the read loop,
// callers of Request and the keepalive ticks are the only writers.
package session
