// Package contract defines the Go interfaces spanning the Coordinator /
// Drive-Controller process boundary: the RPC surface described by spec.md
// §6, expressed as plain interfaces and DTOs rather than a concrete wire
// protocol. No transport is chosen here — no protobuf-generated types, no
// gRPC service definitions, no wire codec — deliberately: the examples pack
// carries no hand-written gRPC/protobuf service of its own to ground an
// implementation against (the pack's only references to grpc/protobuf are
// transitive dependencies of unrelated tooling, not source code to learn
// from), and fabricating .pb.go stubs by hand would be guessing at a wire
// format rather than reusing one.
//
// internal/coordinatorhttp's Client implements CoordinatorClient over plain
// HTTP/JSON. No type in the module implements DriveController or
// Coordinator: the coordinator reaches drive-controller hosts through
// internal/drivehttp, whose Client implements drive.TrayController and
// drive.Ripper instead. Any RPC layer between two hosts only needs to
// produce values that satisfy these interfaces on one side and call them
// on the other.
package contract
