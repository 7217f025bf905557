/*
Package httpserver runs the registry API behind health, drain and pprof
endpoints, with a separate prometheus listener.

Handlers are mounted with RegisterHandler; every mounted route goes through the
structured request logger. Run blocks until its context is done and then
drains and shuts both listeners down.

# Operational Endpoints

	GET /livez    - always 200 while the process serves requests
	GET /readyz   - 200 when ready, 503 while draining
	GET /drain    - mark the server not ready
	GET /undrain  - mark the server ready again
	/debug/pprof  - only with EnablePprof

Metrics are served on MetricsAddr at /metrics.
*/
package httpserver
