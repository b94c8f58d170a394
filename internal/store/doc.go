// Package store provides persistence for the app's core data: JSON files on
// disk for most state, plus a SQLite-backed store for pre-keys where true
// crash-safe atomic consumption matters.
//
// File-based stores are concurrency-safe via internal locking and live
// under the user's configured home directory.
//
// The package includes stores for:
//   - Identity keys (IdentityFileStore)
//   - Signed and one-time pre-keys (SQLitePreKeyStore)
//   - Pre-key bundles (BundleFileStore)
//   - X3DH sessions (SessionFileStore)
//   - Account profiles (AccountFileStore)
//   - Double Ratchet conversation state, including the per-peer hash chain
//     (RatchetFileStore)
package store
