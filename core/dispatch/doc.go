// Package dispatch implements the cycle scheduler: it fetches candidate
// orders from the configured platforms, scores and ranks them, and commits
// accepted orders under a hard concurrency cap with bounded retry. Every
// decision is appended to the ledger; per-order failures never abort the
// cycle and a failed cycle never aborts the owning loop.
package dispatch
