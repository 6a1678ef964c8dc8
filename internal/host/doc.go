// Package host implements the application host: plugin registration,
// capability lookup, the setup phase, and the run loop that presents
// the main window and blocks until shutdown.
//
// The host guarantees setup ordering: builder plugins attach first,
// then setup hooks run, and only after every hook has returned is the
// main window presented. Before-quit hooks run, newest first, after the
// run loop is told to exit and before Run returns.
package host
