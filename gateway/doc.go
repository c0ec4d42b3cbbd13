// Package gateway orchestrates script execution requests.
//
// One request carries a script and N parameter sets. The gateway ensures
// the workspace runtime exists, then drives one isolated runner invocation
// per set, sequentially and without fail-fast: a failure in set i is scoped
// to set i and later sets still run. Every set ends up with exactly one
// recorded result at the deterministically derivable id
// "<request id>_<set index>", so later export and introspection calls can
// address shapes without any shared session state.
package gateway
