/*
Package registry maps collection names to DynamoDB key patterns.

Collections sharing a single table need distinct partition and sort keys.
An index map describes them as templates whose macros are filled from
document fields:

	registry.RegisterIndexMap("articles", map[string]string{
	    "PK": "ARTICLE#{_id}",
	    "SK": "ARTICLE#{_id}",
	    "GSI1PK": "AUTHOR#{author}",
	})

Collections without a registered map use "<collection>#{_id}" for both keys.

The registry is thread-safe and should be populated during initialization.
*/
package registry
