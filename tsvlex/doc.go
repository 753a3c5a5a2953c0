// Package tsvlex implements the tsvlex SQLite virtual table: a read-only
// expansion of stored text-search vectors into one row per lexeme, with the
// position list rendered as JSON. Rows come from a per-table shadow store;
// decoded expansions are cached per dataset and invalidated by shadow-table
// triggers through the tsv_invalidate scalar.
package tsvlex
