// Package models defines the core domain types for the Splitsmart ledger engine.
//
// # Model Overview
//
//   - Expense: a shared expense within a group, split across participants
//   - Split: one participant's share of an expense
//   - PairwiseBalance: a directed debt between two users in a group (durable)
//   - NetBalance: one user's overall signed position in a group (derived, never stored)
//   - SuggestedTransfer: one payment proposed by the settlement optimizer (a plan,
//     never persisted)
//   - Settlement: an immutable audit record of a payment between members
//   - OfflineAction: a queued ledger mutation awaiting replay
//
// # Design Principles
//
//  1. Users are identified by opaque ID strings; profiles live in the excluded
//     account layer.
//  2. Derived values (NetBalance, SuggestedTransfer) are recomputed from ledger
//     state on demand, never incrementally maintained.
//  3. OfflineAction payloads form a closed sum type, one variant per action kind,
//     so the replay dispatcher is exhaustive at compile time.
//  4. Monetary amounts are float64 rounded to cents after each arithmetic step;
//     anything below 0.01 is treated as settled.
package models
