// Package httpserver runs the admin HTTP surface with context-driven
// graceful shutdown and provides liveness/readiness handlers over the
// service's dependency healthchecks.
package httpserver
