// Package cli provides the interactive SubGuard command-line client.
//
// It wires configuration, local storage, the ledger and relayer
// collaborators and the record lifecycle controller behind a small REPL.
// In devnet mode everything runs in-process; in evm mode the client talks to
// a JSON-RPC node and a relayer gRPC endpoint.
//
// Key features:
//   - List, search and page through subscriptions
//   - Add a subscription whose amount is encrypted client-side
//   - Reveal an amount through proof-verified public decryption
//   - Operation history restored across sessions
//   - Signer key import protected by a passphrase, with per-transaction
//     confirmation
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
