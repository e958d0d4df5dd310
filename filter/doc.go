/*
Package filter defines the document predicates shared by every datastore
backend.

Conditions map a field (dotted paths allowed) to either a plain value, which
means equality, or an Expr built with one of the operator helpers:

	filter.Conditions{
	    "status":  "active",
	    "deleted": filter.Ne(true),
	    "age":     filter.Gte(18),
	}

Semantics follow MongoDB: a missing field is never equal to anything, so
Ne(true) selects documents where the field is absent, false, or any value
other than the boolean true. The in-memory backend evaluates predicates with
Match; the other backends compile them to their native query language.
*/
package filter
