// Package database defines the ledger data model: account operations,
// account and coinbase transactions, and blocks, along with the strict
// serialization used at the protocol boundary.
package database
