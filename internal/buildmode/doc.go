// Package buildmode exposes the compile-time development/release
// selector. The choice is made with the "release" build tag so that the
// branch not taken is absent from the shipped artifact: a release
// binary cannot fall back to the development path, and a development
// binary contains no sidecar spawn attempt.
package buildmode
