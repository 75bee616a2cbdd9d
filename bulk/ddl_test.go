package bulk

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTableDefinition(t *testing.T) {
	tests := []struct {
		name    string
		ddl     string
		table   string
		columns []string
	}{
		{
			name:    "temp table",
			ddl:     "CREATE TEMP TABLE items (id int, name text, price numeric(10, 2))",
			table:   "items",
			columns: []string{"id", "name", "price"},
		},
		{
			name: "multi-line with constraints",
			ddl: `create temporary table if not exists Staging (
				Id        bigint not null,
				"Label"   varchar(50),
				created   timestamp with time zone default now(),
				payload   bytea,
				primary key (id),
				constraint label_ok check ("Label" <> '')
			)`,
			table:   "staging",
			columns: []string{"id", "Label", "created", "payload"},
		},
		{
			name:    "schema qualified",
			ddl:     `CREATE UNLOGGED TABLE etl."Raw" (ref uuid, ok boolean, score double precision)`,
			table:   "etl.Raw",
			columns: []string{"ref", "ok", "score"},
		},
		{
			name:    "no create prefix",
			ddl:     "tmp_users (user_id int4, email character varying(200), flag \"char\")",
			table:   "tmp_users",
			columns: []string{"user_id", "email", "flag"},
		},
		{
			name:    "unknown types skipped",
			ddl:     "CREATE TABLE t (a int, b jsonb, c interval, d text)",
			table:   "t",
			columns: []string{"a", "d"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta, err := ParseTableDefinition(tc.ddl)
			require.NoError(t, err)
			assert.Equal(t, tc.table, meta.Name)
			assert.Equal(t, tc.columns, meta.Ordered())
			for i, c := range tc.columns {
				assert.Equal(t, i, meta.Columns[c])
			}
		})
	}
}

func TestParseTableDefinitionErrors(t *testing.T) {
	_, err := ParseTableDefinition("   ")
	assert.ErrorIs(t, err, ErrNoTableName)

	_, err = ParseTableDefinition("CREATE TABLE t")
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = ParseTableDefinition("CREATE TABLE t (payload jsonb, PRIMARY KEY (payload))")
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestTableMetaIdentifier(t *testing.T) {
	tests := []struct {
		ddl  string
		name string
		want pgx.Identifier
	}{
		{`CREATE TABLE "a.b" (id int)`, "a.b", pgx.Identifier{"a.b"}},
		{`CREATE TABLE s."t" (id int)`, "s.t", pgx.Identifier{"s", "t"}},
		{`CREATE TABLE "my.schema" . "x.y" (id int)`, "my.schema.x.y", pgx.Identifier{"my.schema", "x.y"}},
		{`CREATE TABLE Etl.Raw (id int)`, "etl.raw", pgx.Identifier{"etl", "raw"}},
	}
	for _, tc := range tests {
		t.Run(tc.ddl, func(t *testing.T) {
			meta, err := ParseTableDefinition(tc.ddl)
			require.NoError(t, err)
			assert.Equal(t, tc.name, meta.Name)
			assert.Equal(t, tc.want, meta.Identifier())
		})
	}

	meta := &TableMeta{Name: "etl.Raw"}
	assert.Equal(t, pgx.Identifier{"etl.Raw"}, meta.Identifier(), "a bare name is one part")
}

func TestSplitTopLevel(t *testing.T) {
	got := splitTopLevel(`a numeric(10, 2), b text default 'x, y', "c,d" int`)
	assert.Equal(t, []string{"a numeric(10, 2)", " b text default 'x, y'", ` "c,d" int`}, got)
}
