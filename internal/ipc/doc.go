// Package ipc owns the live i3/Sway IPC socket.
//
// Ownership boundary:
// - dial and subscribe handshake
// - serialized writes
// - read loop feeding protocol/frame into dispatch
// - idempotent close with closing/closed observers
package ipc
