/*
Package httpserver serves registry lookups over HTTP.

Every endpoint is a thin front-end over an interfaces.Registrar: it parses the
path, runs the lookup and maps the outcome to a status code. Lookups are
counted in the Prometheus registry owned by the server, which is exposed on a
separate metrics listener.

# Endpoints

  - GET /api/resolve/{name}?record=A&async=1 - address record of a name
  - GET /api/owner/{name} - owner of a name
  - GET /api/data/{name}?record=A - raw 32-byte record of a name
  - GET /api/reverse/{address} - name registered for an address
  - GET /livez, /readyz, /drain, /undrain - health and load balancer control
  - /debug/pprof - profiling, when enabled

# Status codes

  - 200 with a JSON body when the entry exists
  - 404 when the registry holds no entry (absent is not a failure)
  - 400 for malformed names or addresses
  - 502 when the registry answered with malformed data
  - 503 when no node could be reached
  - 504 when the request context ended before the node answered

Error bodies have the form {"error": "..."}.
*/
package httpserver
