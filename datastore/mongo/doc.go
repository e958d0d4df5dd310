/*
Package mongo provides a MongoDB implementation of the datastore.Store interface.

Conditions translate directly into query documents, and composed clauses are
combined with $and. MongoDB's $ne already matches documents where the field
is missing, which is what visibility filtering on the "deleted" flag relies
on for records written before the flag existed.

Documents come back with driver types normalized: nested documents become
maps, arrays become []any and DateTime values become UTC time.Time.
*/
package mongo
