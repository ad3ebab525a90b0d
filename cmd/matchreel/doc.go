// Package main hosts the matchreel CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon in the foreground, processes single
// recordings on demand, and exposes the resolver and description builder for
// debugging a recording that went to the wrong match. Configuration is
// resolved once per invocation in commandContext.
package main
