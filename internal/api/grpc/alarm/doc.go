// Package alarm implements the gRPC transport for the radio alarm service.
//
// The service is declared by hand: every request and response is a
// google.protobuf.Struct, so the wire format is plain protobuf and no
// generated stubs are needed. View and request helpers convert between
// those structs and domain types on both sides of the connection.
package alarm
