// Package bridge invokes API routes in process by identifier, the way a
// server-rendered page calls a server function.
//
// A call looks the route up by its dotted id, synthesizes an
// http://localhost request from the payload, runs the handler and hands the
// first Set-Cookie of the result to a [CookieStore]. Every failure, an
// unknown id included, becomes a 500 result with the body
// {"message":"Internal Server Error","error":"..."}.
package bridge
