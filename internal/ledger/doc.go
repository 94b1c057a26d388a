// Package ledger holds the pure household ledger rules: expanding a recurring
// request into dated installments, and summarizing a period of transactions
// into totals and a settlement between self and partner.
//
// Nothing in this package performs I/O. Persistence and orchestration live in
// the services and store packages.
package ledger
