// Package coordinatorhttp is the plain net/http + JSON transport between
// the coordinator daemon (cmd/mediacorrald) and its clients (cmd/mediacorralctl
// and any other caller), implementing contract.CoordinatorClient's surface
// without introducing a separate RPC/wire-format dependency — matching
// internal/contract's deliberate "interfaces only" scope and internal/drivehttp's
// transport choice for the coordinator/drive-controller link.
//
// Server wraps the coordinator's live drive.Machine instances and core
// components (blob store, index, catalog client, export renderer) and
// exposes them as JSON endpoints. Client implements contract.CoordinatorClient
// against a running Server, used by cmd/mediacorralctl.
package coordinatorhttp
