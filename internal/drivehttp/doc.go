// Package drivehttp is the plain net/http + JSON transport between the
// coordinator (cmd/mediacorrald) and a drive-controller host (cmd/drivectl),
// implementing the contract.DriveController surface described by spec.md
// §6 without a separate wire-format dependency (see internal/contract's
// doc comment for why no gRPC/protobuf stack was introduced).
//
// Client implements drive.TrayController and drive.Ripper against a remote
// drivectl process. Ripping is physically local to the drive-controller
// host, so Client.Rip streams MakeMKV progress as it happens and then
// fetches the finished .mkv/.srt files over HTTP into the caller's local
// staging directory, matching the shape drive.Machine already expects from
// an in-process Ripper.
package drivehttp
