// Package sidecar implements single-shot supervision of the packaged
// backend executable.
//
// The supervisor resolves a logical binary name through the shell
// services capability, spawns it as a child of the shell process,
// captures its standard streams, and bounds its lifetime by the shell's
// own: when the host tears down, the child is signalled, waited on for
// a grace period, then killed.
//
// Supervision is deliberately single-shot. There is no restart policy,
// no health probing, and no readiness signal; a child that dies stays
// dead and the UI surfaces the resulting connectivity error.
package sidecar
