// Package tsvstat aggregates lexeme statistics over stored text-search
// vectors, in the spirit of PostgreSQL's ts_stat: per lexeme, how many
// documents mention it and how many occurrences there are in total.
// Statistics serialize to a compact binary form and persist in the shared
// tsv_storage table, keyed by shadow table and dataset.
package tsvstat
