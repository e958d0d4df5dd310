/*
Package config holds soft-delete Options and backend connection settings.

Options may be built directly or decoded from YAML:

	indexFields: all          # or true, or [deleted, deletedAt]
	deletedBy: true
	deletedByType: uuid       # objectid | uuid | string

Env reads backend settings (SOFTDELETE_BACKEND, DDB_TABLE_NAME, MONGO_URI,
POSTGRES_URL, SQLITE_PATH, ...) from the environment and an optional .env file.
*/
package config
