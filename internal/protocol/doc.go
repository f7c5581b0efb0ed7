// Package protocol owns the i3/Sway IPC vocabulary.
//
// Ownership boundary:
// - command and event kinds
// - typed event payloads
// - payload and socket-path error taxonomy
//
// Framing lives in protocol/frame.
package protocol
