package app

// Introspection statements. information_schema columns are domains, so
// they are cast to plain types the value model knows.
const (
	queryDatabaseName = `SELECT current_database()::text AS name`

	queryListSchemas = `
		SELECT schema_name::text AS name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		  AND schema_name NOT LIKE 'pg_temp_%'
		  AND schema_name NOT LIKE 'pg_toast_temp_%'
		ORDER BY schema_name`

	queryListTables = `
		SELECT table_name::text AS name
		FROM information_schema.tables
		WHERE table_schema = @schema
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	queryGetColumns = `
		SELECT
			c.column_name::text AS name,
			c.data_type::text AS data_type,
			c.is_nullable::text = 'YES' AS nullable,
			COALESCE(c.column_default, '')::text AS default_value,
			c.ordinal_position::int4 AS position,
			pk.column_name IS NOT NULL AS primary_key
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT ku.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage ku
				ON tc.constraint_name = ku.constraint_name
				AND tc.table_schema = ku.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = @schema
				AND tc.table_name = @table
		) pk ON c.column_name = pk.column_name
		WHERE c.table_schema = @schema
		  AND c.table_name = @table
		ORDER BY c.ordinal_position`

	queryTableRowCount = `
		SELECT GREATEST(COALESCE(c.reltuples, 0), 0)::int8 AS estimate
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relname = @table
		  AND n.nspname = @schema`
)
