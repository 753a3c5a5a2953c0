// Package tsvector implements a PostgreSQL-compatible text-search document
// vector for SQLite: a canonical, order-independent collection of lexemes,
// each optionally annotated with weighted occurrence positions. It includes:
//   - Position and Lexeme building blocks with their packing and dedup rules
//   - Parse: the tsvector text format into a normalized Vector
//   - canonical text rendering, a BLOB codec and a JSON codec
//   - database/sql Scanner/Valuer glue and a simple document vectorizer
//   - Schema helpers and a SQLite-backed document Store
package tsvector
