// Package proto holds the wire contract of the gophauth gRPC service:
// request and response messages, the service descriptor, the client stub
// and a JSON codec that carries the messages.
//
// The messages are plain Go structs. They travel as JSON under the
// content subtype "json" (content-type application/grpc+json), so no
// code generation step is involved.
package proto
