// Package internal turns a core.ServerConfig into a running HTTP server.
//
// Every API route is mounted on a chi router, with ":name" path segments
// rewritten to chi patterns. Handler errors become JSON error bodies whose
// status comes from StatusOf:
//
//	validator.ValidationErrors            422
//	auth.ErrInvalidCredentials            401
//	orm.ErrNotFound, auth.Err*NotFound    404
//	auth.ErrEmailTaken                    409
//	api.ErrInvalidBody, auth.ErrInvalid*  400
//	*HTTPError                            its Code
//	anything else                         500, details logged only
//
// The server function bridge is served at POST /_fn/{id}, health probes at
// /health/live and /health/ready when enabled.
//
// Run blocks until SIGINT/SIGTERM or the base context is cancelled, then
// drains the server and runs shutdown hooks within ShutdownTimeout.
package internal
