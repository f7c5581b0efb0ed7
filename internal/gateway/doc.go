// Package gateway issues one-shot IPC commands by spawning the provider's
// message executable (swaymsg or i3-msg) and parsing its JSON output.
//
// Ownership boundary:
// - argv construction for -t/-m invocations and raw run_command arguments
// - exit status and stderr capture
// - typed reply helpers over internal/tree
package gateway
