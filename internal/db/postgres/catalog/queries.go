// Copyright 2025 Greenmask
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

var (
	tableExistsQuery = `
		SELECT exists(
			SELECT 1
			FROM pg_catalog.pg_class c
				JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relkind IN ('r', 'p')
			  AND n.nspname = $1 -- schema
			  AND c.relname = $2 -- relname
		);
	`

	schemaExistsQuery = `
		SELECT exists(
			SELECT 1
			FROM pg_catalog.pg_namespace n
			WHERE n.nspname = $1
		);
	`

	// listTablesQuery - base and partitioned tables of a schema with their total size (heap,
	// indexes and toast)
	listTablesQuery = `
		SELECT c.relname                                                      AS name,
			   pg_catalog.pg_size_pretty(pg_catalog.pg_total_relation_size(c.oid)) AS size,
			   pg_catalog.pg_total_relation_size(c.oid)                       AS size_bytes
		FROM pg_catalog.pg_class c
				 JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p')
		  AND NOT c.relispartition
		  AND n.nspname = $1
		ORDER BY c.relname;
	`

	listSchemasQuery = `
		SELECT n.nspname
		FROM pg_catalog.pg_namespace n
		WHERE n.nspname NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
		  AND n.nspname NOT LIKE 'pg\_temp\_%'
		  AND n.nspname NOT LIKE 'pg\_toast\_temp\_%'
		ORDER BY n.nspname;
	`

	// foreignKeysQuery - foreign keys where the table is the referencing side. Columns are
	// aggregated in the constraint key order so composite keys are kept intact.
	foreignKeysQuery = `
		SELECT pc.conname                                  AS name,
			   array_agg(la.attname::TEXT ORDER BY k.ord)  AS columns,
			   fn.nspname                                  AS foreign_schema,
			   fc.relname                                  AS foreign_table,
			   array_agg(fa.attname::TEXT ORDER BY k.ord)  AS foreign_columns,
			   pc.confupdtype::TEXT                        AS update_rule,
			   pc.confdeltype::TEXT                        AS delete_rule,
			   pc.confmatchtype = 'f'                      AS match_full,
			   pc.condeferrable                            AS deferrable,
			   pc.condeferred                              AS initially_deferred,
			   pc.convalidated                             AS validated
		FROM pg_catalog.pg_constraint pc
				 JOIN pg_catalog.pg_class t ON t.oid = pc.conrelid
				 JOIN pg_catalog.pg_namespace tn ON tn.oid = t.relnamespace
				 JOIN pg_catalog.pg_class fc ON fc.oid = pc.confrelid
				 JOIN pg_catalog.pg_namespace fn ON fn.oid = fc.relnamespace
				 CROSS JOIN LATERAL unnest(pc.conkey, pc.confkey) WITH ORDINALITY AS k(local_num, foreign_num, ord)
				 JOIN pg_catalog.pg_attribute la ON la.attrelid = pc.conrelid AND la.attnum = k.local_num
				 JOIN pg_catalog.pg_attribute fa ON fa.attrelid = pc.confrelid AND fa.attnum = k.foreign_num
		WHERE pc.contype = 'f'
		  AND pc.conparentid = 0
		  AND tn.nspname = $1
		  AND t.relname = $2
		GROUP BY pc.oid, pc.conname, fn.nspname, fc.relname, pc.confupdtype, pc.confdeltype,
				 pc.confmatchtype, pc.condeferrable, pc.condeferred, pc.convalidated
		ORDER BY pc.conname;
	`

	// ownedSequencesQuery - sequences bound to a column of the table through an automatic
	// (serial, OWNED BY) or internal (identity) dependency
	ownedSequencesQuery = `
		SELECT sn.nspname AS schema,
			   s.relname  AS name,
			   a.attname  AS column
		FROM pg_catalog.pg_class s
				 JOIN pg_catalog.pg_namespace sn ON sn.oid = s.relnamespace
				 JOIN pg_catalog.pg_depend d ON d.objid = s.oid
			AND d.classid = 'pg_catalog.pg_class'::regclass
			AND d.refclassid = 'pg_catalog.pg_class'::regclass
			AND d.deptype IN ('a', 'i')
				 JOIN pg_catalog.pg_class t ON t.oid = d.refobjid
				 JOIN pg_catalog.pg_namespace tn ON tn.oid = t.relnamespace
				 JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = d.refobjsubid
		WHERE s.relkind = 'S'
		  AND tn.nspname = $1
		  AND t.relname = $2
		ORDER BY s.relname;
	`

	findTableSchemaQuery = `
		SELECT n.nspname
		FROM pg_catalog.pg_class c
				 JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p')
		  AND c.relname = $1
		  AND n.nspname = ANY ($2::TEXT[])
		ORDER BY array_position($2::TEXT[], n.nspname::TEXT)
		LIMIT 1;
	`
)
