// Package models defines the core domain models for PocketLedger.
//
// # Relational models
//
// These live in the SQLite database:
//   - Transaction: a single income or expense entry in the ledger
//   - CategoryTotal: an aggregate row of the spending-by-category report
//
// # Local store models
//
// These are persisted as whole JSON collections in the local key-value store:
//   - Note: a free-form financial note
//   - Debt: a repayment plan owning embedded Payment records
//   - Todo: a task with an optional due date
//   - Preferences: theme and display currency
//
// # Backups
//
//   - Snapshot: a timestamp-named backup spanning both stores
//
// # Design Principles
//
// 1. **Positive amounts**: amounts are always stored positive; the sign comes from the kind
// 2. **Embedded sub-entities**: payments belong to a debt and are never addressed on their own
// 3. **Inferred snapshots**: a snapshot exists because its tables or keys exist, there is no index
package models
