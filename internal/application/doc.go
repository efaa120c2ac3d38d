// Package application provides application initialization and dependency wiring.
// It encapsulates the creation of storage, the planner, handlers, routers and the
// HTTP server, and runs offline planning from a manifest file, keeping the main
// package focused on CLI parsing and orchestration.
package application
