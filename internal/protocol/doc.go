// Package protocol owns the wire contract shared by the codec layers.
//
// Ownership boundary:
// - protocol version and opcode table
// - server-reported application errors
//
// The byte-level work lives in the subpackages: frame (header codec and
// stream assembly), lz4block (block decompression), payload (msgpack value
// codec and block-token resolution) and session (correlation and keepalive).
package protocol
