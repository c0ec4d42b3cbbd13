// Package runner implements both sides of the isolated script-build
// protocol.
//
// The contract is a bounded subprocess exchange: one JSON [Envelope] in on
// stdin, one JSON [Output] document out on stdout, stderr reserved for
// diagnostics and never parsed. The runner has no dependency on host
// process state beyond the echoed result id, so a crash or hang in a build
// cannot corrupt the host.
//
// [Run] is the runner side: parameter substitution, two-phase parse and
// build through a [geometry.Kernel], and one intermediate artifact per
// published object, exported independently so one failure is scoped to that
// object alone.
//
// [Invoker] is the host side. [Subprocess] spawns the workspace runtime
// entry point; replacing it with a container or VM boundary changes nothing
// for callers.
package runner
