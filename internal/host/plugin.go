package host

// Plugin is a host extension attached during setup. Attachment is
// atomic: a plugin either attaches fully or returns an error, and an
// error aborts startup before the main window is presented.
type Plugin interface {
	// ID identifies the plugin in log output and capability lookup.
	ID() string
	// Attach registers the plugin's capability with the host.
	Attach(h *Handle) error
}
