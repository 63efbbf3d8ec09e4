// Package strutil provides string utilities for case conversion and SQL naming
// used throughout the evolve codebase.
package strutil

import (
	"strings"
	"unicode"
)

// -----------------------------------------------------------------------------
// Case Conversion
// -----------------------------------------------------------------------------

// ToSnakeCase converts a string to snake_case.
// Examples: userName -> user_name, UserName -> user_name, HTTPServer -> http_server
func ToSnakeCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s) + 4) // pre-allocate with some extra space for underscores

	for i, r := range s {
		if unicode.IsUpper(r) {
			// Add underscore before uppercase letter if:
			// - Not at the start
			// - Previous char is lowercase, OR
			// - Next char exists and is lowercase (handles "HTTPServer" -> "http_server")
			if i > 0 {
				prev := rune(s[i-1])
				if unicode.IsLower(prev) {
					result.WriteByte('_')
				} else if i+1 < len(s) && unicode.IsLower(rune(s[i+1])) {
					result.WriteByte('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else if r == '-' || r == ' ' {
			// Convert dashes and spaces to underscores
			result.WriteByte('_')
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// Slugify converts free text into a safe migration slug: lowercase snake_case
// with every non-alphanumeric run collapsed to a single underscore.
// Example: "Add Users Table!" -> "add_users_table"
func Slugify(s string) string {
	snake := ToSnakeCase(s)

	var result strings.Builder
	result.Grow(len(snake))
	lastUnderscore := true // swallow leading separators

	for _, r := range snake {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			result.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				result.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "_")
}

// -----------------------------------------------------------------------------
// SQL Naming
// -----------------------------------------------------------------------------

// IndexName returns the deterministic index name for a table and columns.
// Example: IndexName("users", "email") -> "idx_users_email"
// Example: IndexName("users", "first_name", "last_name") -> "idx_users_first_name_last_name"
func IndexName(table string, cols ...string) string {
	parts := []string{"idx", table}
	parts = append(parts, cols...)
	return strings.Join(parts, "_")
}

// ConstraintName returns a named constraint: <prefix>_<table>_<name>.
// Example: ConstraintName("fk", "posts", "author_id") -> "fk_posts_author_id"
func ConstraintName(prefix, table, name string) string {
	return prefix + "_" + table + "_" + name
}

// FKColumn returns the conventional foreign key column name for a table.
// Example: FKColumn("user") -> "user_id"
func FKColumn(table string) string {
	return table + "_id"
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

// Indent indents each non-empty line of text with the given number of spaces.
func Indent(text string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
