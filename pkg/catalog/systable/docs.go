// Package systable defines the catalog tables syscat uses to describe its own
// databases, schemas, tables, columns, indexes and triggers. Catalog rows are
// ordinary rows in the storage engine they describe.
//
// # Architecture
//
// Every catalog table is modelled the same way:
//
//  1. A [Descriptor] holds all static knowledge about the table: its name,
//     fixed oid, schema, index set, and the functions that convert domain
//     values to and from raw [tuple.Tuple]s. Descriptors do no I/O.
//
//  2. A [CatalogTable] binds a descriptor to [catalogio.CatalogAccess] and
//     provides bootstrap, oid allocation and typed insert/scan/delete.
//     Concrete catalogs (e.g. [SchemaCatalog], [TriggerCatalog]) embed it
//     and add the domain operations.
//
// # Catalog Tables
//
// pg_database (managed by [DatabaseCatalog])
//
//	database_oid | database_name
//	-------------+--------------
//	int PK       | varchar UNIQUE
//
// pg_namespace (managed by [SchemaCatalog])
//
//	schema_oid | schema_name
//	-----------+-------------
//	int PK     | varchar UNIQUE
//
// pg_table (managed by [TableCatalog])
//
//	table_oid | table_name | schema_oid | database_oid
//	----------+------------+------------+-------------
//	int PK    | varchar    | int        | int
//
// (database_oid, table_name) is unique.
//
// pg_attribute (managed by [ColumnCatalog])
//
//	table_oid | column_name | column_id | column_type | is_not_null | is_primary
//	----------+-------------+-----------+-------------+-------------+-----------
//	int PK    | varchar PK  | int       | int         | bool        | bool
//
// pg_index (managed by [IndexCatalog])
//
//	index_oid | index_name | table_oid | key_columns | constraint_kind
//	----------+------------+-----------+-------------+----------------
//	int PK    | varchar    | int       | varchar     | int
//
// key_columns holds column ids separated by commas, e.g. "0,1".
//
// pg_trigger (managed by [TriggerCatalog])
//
//	oid    | tgrelid | tgname  | tgfoid  | tgtype | tgargs  | tgqual    | timestamp
//	-------+---------+---------+---------+--------+---------+-----------+----------
//	int PK | int     | varchar | varchar | int    | varchar | varbinary | timestamp
//
// Indexes: skey0 (tgrelid, tgtype), skey1 (tgrelid) and the unique
// skey2 (tgname, tgrelid). tgqual is stored as given and never interpreted.
package systable
