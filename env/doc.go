// Package env manages per-workspace execution environments.
//
// Each workspace owns exactly one isolated, dependency-pinned runtime,
// created lazily on first use. The [Manager] guarantees:
//
//   - the runtime is created only if missing;
//   - the base geometry-library dependency is always installed idempotently;
//   - the workspace's extra-dependency manifest is installed only when its
//     modification time differs from the memoized value, and the memo is
//     rolled back on failure so the next call retries;
//   - all of the above is serialized per workspace, so concurrent first-use
//     performs a single install.
//
// The actual install mechanics live behind [Provisioner]; [UVProvisioner]
// is the production implementation backed by the uv package manager.
package env
