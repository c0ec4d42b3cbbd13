// Package introspect resolves stored shape addresses back into live
// geometry and exposes the host-side operations on them: file export,
// vector-image previews, metric computation, and prose description.
//
// Every operation addresses a shape by (result id, index) through the
// result store, then reloads it from its intermediate artifact via the
// geometry kernel. The store holds references, never geometry, so a
// missing artifact surfaces as ErrArtifactMissing at access time.
//
// Contract:
//   - Concurrency: a Dispatcher is safe for concurrent use; it holds no
//     mutable state of its own.
//   - Errors: address failures return store errors unwrapped; kernel
//     failures return geometry errors unwrapped. Callers dispatch on both
//     with errors.Is.
package introspect
