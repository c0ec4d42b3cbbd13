// Package proc carries the geometry kernel across a process boundary.
//
// The bridge side (Serve) holds real geometry and answers newline-delimited
// JSON requests over stdio; the client side (Client) implements
// geometry.Kernel by issuing those requests, referencing bridge-resident
// programs and shapes by handle. Error sentinels survive the crossing, so
// callers dispatch with errors.Is exactly as they would against an
// in-process kernel.
package proc
