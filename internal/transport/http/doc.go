// Package http contains the HTTP handlers of the feature service.
//
// Handlers decode and validate requests, call the services and render JSON
// through go-chi/render. Every error goes through errors.ErrorHandler and
// reaches the client as an RFC 7807 problem.
//
// Routes:
//
//	GET  /                     welcome message
//	GET  /status               liveness, {"status":"UP"}
//	GET  /version              build information
//	GET  /health/ready         dataset readiness
//	GET  /health/live          runtime figures
//	GET  /metrics              Prometheus scrape endpoint
//	GET  /features/raw         raw loan records, ?customer_id= repeatable
//	POST /features/engineer    engineered features, ?format=json|csv|xlsx
//	POST /features/definitions planned feature definitions
//	GET  /features/primitives  primitive catalog
package http
