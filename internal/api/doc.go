// Package api hosts the HTTP server, middleware, and REST handlers for the matching
// service. Notable routes:
//   - POST /match_company resolves a partial company descriptor to an indexed profile.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
