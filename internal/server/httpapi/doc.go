// Package httpapi exposes the auth service as a JSON API under /api/auth.
//
// Every response body is a StandardResponse envelope. Protected routes
// take the access token as "Authorization: Bearer <token>".
package httpapi
