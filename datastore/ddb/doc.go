/*
Package ddb provides a DynamoDB implementation of the datastore.Store interface.

Each Store serves one collection inside a shared table:
  - Primary keys come from the collection's index map (see package registry)
  - Every item carries an EntityType attribute naming its collection
  - Filters compile to scan filter expressions; a not-equal constraint also
    matches items where the attribute is missing
  - Updates are conditional, so an item that stops matching between the scan
    and the write is left alone
  - Streaming pages through the scan with retry logic for throttling

Macro Expansion:
Keys use macros that are replaced with document field values:

	registry.RegisterIndexMap("articles", map[string]string{
	    "PK": "ARTICLE#{_id}",
	    "SK": "ARTICLE#{_id}",
	})

Indexes:
EnsureIndexes creates a global secondary index per indexed schema field.
DynamoDB cannot key an index on a boolean attribute, so the "deleted" hint is
logged and skipped.
*/
package ddb
