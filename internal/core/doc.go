// Package core provides the business logic for managing property leads.
//
// This package holds all domain rules independent of any transport or
// storage engine. Web handlers, the leadctl CLI, and tests all drive the
// same [Service].
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Field Specs: A declarative list of [FieldSpec] values describing every
//     editable lead attribute (type, enum domain, required flag). Form input,
//     API patches, filters, and CSV rows are all checked against it.
//   - Validation Profiles: [ValidateCreate], [ValidatePatch], and [ParseRow]
//     run the same two stages: typed parsing per field, then a pure
//     cross-field check over the typed draft.
//   - Diff Engine: [ComputeDiff] produces the field-level change set stored in
//     lead history.
//   - Service: The entry point for create, update, delete, list, import, and
//     export. Every write runs inside a single [Store] transaction.
//
// # Mutation Flow
//
// Updates are guarded by an optimistic version check on updatedAt:
//
//  1. Caller submits a patch plus the updatedAt it last observed
//  2. Service locks the row inside a transaction
//  3. Ownership and version are verified against the locked row
//  4. The patch is validated and diffed against the locked row
//  5. The row is written with a conditional UPDATE, history appended if the
//     diff is non-empty
//
// # Import
//
// CSV imports validate every row independently. Valid rows commit together in
// one transaction; rejected rows are reported with their line numbers so the
// caller can fix and resubmit only those.
//
// # Error Handling
//
// Domain failures are typed ([ValidationError], [ErrNotFound], [ErrForbidden],
// [ErrConflict], [RateLimitError], [BatchSizeError], [SystemError]) and are
// mapped to user-facing messages with support codes by [MapError].
package core
