/*
Package sqldoc stores documents as JSON in a SQL table, one table per
collection, and implements the datastore.Store interface on top of it.

Two dialects are provided:
  - Postgres keeps documents in a JSONB column and compares fields with
    jsonb operators, so every bound value is JSON-encoded
  - SQLite keeps JSON text and reads fields with json_extract

A missing field reads as NULL in both, and a not-equal constraint is
compiled as "IS NULL OR <>" so records without the field still match.

Updates select the matching rows inside a transaction, apply the patch in
memory and write the documents back. Timestamps are stored as fixed-width
UTC strings so range conditions compare them in order.
*/
package sqldoc
