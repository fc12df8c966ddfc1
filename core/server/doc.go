// Package server holds the HTTP server configuration.
//
// The serve command owns the Fiber application; this package defines the port, the
// API key protecting every route except the Swagger UI, and how long active runs are
// given to stop when the server shuts down.
package server
