// Package server exposes the HTTP surface: the WebSocket streaming endpoint,
// health probes, runtime stats, and Prometheus metrics. It upgrades incoming
// connections, applies the per-IP limits, and hands each accepted connection
// to the stream package.
package server
