// Package ledger provides the append-only event log that is the single
// source of truth for task and order history. Events are never edited or
// deleted; current state is always the fold of all events in append order.
package ledger
