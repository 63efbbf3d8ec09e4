package dialect

import "testing"

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
	}{
		{"sqlite", "sqlite", "sqlite"},
		{"sqlite3 alias", "sqlite3", "sqlite"},
		{"postgres", "postgres", "postgres"},
		{"postgresql alias", "postgresql", "postgres"},
		{"mysql", "mysql", "mysql"},
		{"mariadb alias", "mariadb", "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Get(tt.input)
			if d == nil {
				t.Fatalf("Get(%q) = nil", tt.input)
			}
			if d.Name() != tt.wantName {
				t.Errorf("Get(%q).Name() = %q, want %q", tt.input, d.Name(), tt.wantName)
			}
		})
	}

	if d := Get("oracle"); d != nil {
		t.Errorf("Get(oracle) = %v, want nil", d)
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		dialect string
		name    string
		want    string
	}{
		{"sqlite", "users", `"users"`},
		{"postgres", "users", `"users"`},
		{"postgres", `we"ird`, `"we""ird"`},
		{"mysql", "users", "`users`"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.name, func(t *testing.T) {
			if got := Get(tt.dialect).QuoteIdent(tt.name); got != tt.want {
				t.Errorf("QuoteIdent(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Postgres().Placeholder(3); got != "$3" {
		t.Errorf("postgres Placeholder(3) = %q, want $3", got)
	}
	if got := SQLite().Placeholder(3); got != "?" {
		t.Errorf("sqlite Placeholder(3) = %q, want ?", got)
	}
	if got := MySQL().Placeholder(1); got != "?" {
		t.Errorf("mysql Placeholder(1) = %q, want ?", got)
	}
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		dialect   string
		canonical string
		maxLength int
		want      string
	}{
		{"postgres", "varchar", 100, "VARCHAR(100)"},
		{"postgres", "varchar", 0, "VARCHAR(255)"},
		{"postgres", "datetime", 0, "TIMESTAMPTZ"},
		{"postgres", "json", 0, "JSONB"},
		{"postgres", "uuid", 0, "UUID"},
		{"mysql", "varchar", 100, "VARCHAR(100)"},
		{"mysql", "boolean", 0, "TINYINT(1)"},
		{"mysql", "uuid", 0, "CHAR(36)"},
		{"mysql", "datetime", 0, "DATETIME"},
		{"sqlite", "varchar", 100, "TEXT"},
		{"sqlite", "boolean", 0, "INTEGER"},
		{"sqlite", "datetime", 0, "DATETIME"},
		{"sqlite", "blob", 0, "BLOB"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.canonical, func(t *testing.T) {
			got := Get(tt.dialect).ColumnType(tt.canonical, tt.maxLength)
			if got != tt.want {
				t.Errorf("ColumnType(%q, %d) = %q, want %q",
					tt.canonical, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestAutoIncrementType(t *testing.T) {
	tests := []struct {
		dialect    string
		big        bool
		wantClause string
		wantPK     bool
	}{
		{"postgres", false, "SERIAL", false},
		{"postgres", true, "BIGSERIAL", false},
		{"mysql", false, "INT AUTO_INCREMENT", false},
		{"mysql", true, "BIGINT AUTO_INCREMENT", false},
		{"sqlite", false, "INTEGER PRIMARY KEY AUTOINCREMENT", true},
		{"sqlite", true, "INTEGER PRIMARY KEY AUTOINCREMENT", true},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			clause, pk := Get(tt.dialect).AutoIncrementType(tt.big)
			if clause != tt.wantClause || pk != tt.wantPK {
				t.Errorf("AutoIncrementType(%v) = (%q, %v), want (%q, %v)",
					tt.big, clause, pk, tt.wantClause, tt.wantPK)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	if SQLite().SupportsAlterColumn() {
		t.Error("sqlite should not support ALTER COLUMN")
	}
	if SQLite().SupportsDropConstraint() {
		t.Error("sqlite should not support DROP CONSTRAINT")
	}
	if !Postgres().SupportsAddConstraint() {
		t.Error("postgres should support ADD CONSTRAINT")
	}
	if !MySQL().SupportsAlterColumn() {
		t.Error("mysql should support column modification")
	}
}

func TestAlterColumnTypeSQL(t *testing.T) {
	if sql, ok := Postgres().AlterColumnTypeSQL("users", "age", "BIGINT", true); !ok ||
		sql != `ALTER TABLE "users" ALTER COLUMN "age" TYPE BIGINT` {
		t.Errorf("postgres AlterColumnTypeSQL = (%q, %v)", sql, ok)
	}

	if sql, ok := MySQL().AlterColumnTypeSQL("users", "age", "BIGINT", false); !ok ||
		sql != "ALTER TABLE `users` MODIFY COLUMN `age` BIGINT NOT NULL" {
		t.Errorf("mysql AlterColumnTypeSQL = (%q, %v)", sql, ok)
	}

	if _, ok := SQLite().AlterColumnTypeSQL("users", "age", "INTEGER", true); ok {
		t.Error("sqlite AlterColumnTypeSQL should report not expressible")
	}
}

func TestDropConstraintSQL(t *testing.T) {
	if sql, ok := Postgres().DropConstraintSQL("posts", "fk_posts_author_id", "foreign_key"); !ok ||
		sql != `ALTER TABLE "posts" DROP CONSTRAINT "fk_posts_author_id"` {
		t.Errorf("postgres DropConstraintSQL = (%q, %v)", sql, ok)
	}

	if sql, ok := MySQL().DropConstraintSQL("posts", "fk_posts_author_id", "foreign_key"); !ok ||
		sql != "ALTER TABLE `posts` DROP FOREIGN KEY `fk_posts_author_id`" {
		t.Errorf("mysql DropConstraintSQL = (%q, %v)", sql, ok)
	}

	if _, ok := SQLite().DropConstraintSQL("posts", "x", "check"); ok {
		t.Error("sqlite DropConstraintSQL should report not expressible")
	}
}

func TestDropIndexSQL(t *testing.T) {
	if got := Postgres().DropIndexSQL("users", "idx_users_email"); got != `DROP INDEX "idx_users_email"` {
		t.Errorf("postgres DropIndexSQL = %q", got)
	}
	if got := MySQL().DropIndexSQL("users", "idx_users_email"); got != "DROP INDEX `idx_users_email` ON `users`" {
		t.Errorf("mysql DropIndexSQL = %q", got)
	}
}

func TestRenameSQL(t *testing.T) {
	if got := SQLite().RenameTableSQL("customers", "clients"); got != `ALTER TABLE "customers" RENAME TO "clients"` {
		t.Errorf("sqlite RenameTableSQL = %q", got)
	}
	if got := MySQL().RenameTableSQL("customers", "clients"); got != "RENAME TABLE `customers` TO `clients`" {
		t.Errorf("mysql RenameTableSQL = %q", got)
	}
	if got := Postgres().RenameColumnSQL("users", "full_name", "name"); got != `ALTER TABLE "users" RENAME COLUMN "full_name" TO "name"` {
		t.Errorf("postgres RenameColumnSQL = %q", got)
	}
}

func TestDefaultLiteral(t *testing.T) {
	tests := []struct {
		dialect string
		value   any
		want    string
	}{
		{"postgres", "it's", "'it''s'"},
		{"postgres", true, "TRUE"},
		{"sqlite", true, "1"},
		{"sqlite", false, "0"},
		{"mysql", 42, "42"},
		{"postgres", nil, "NULL"},
		{"postgres", Expr("CURRENT_TIMESTAMP"), "CURRENT_TIMESTAMP"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			if got := Get(tt.dialect).DefaultLiteral(tt.value); got != tt.want {
				t.Errorf("DefaultLiteral(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
