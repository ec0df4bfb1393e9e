package dialect

// Now returns the SQL expression for the current timestamp rendered as
// "YYYY-MM-DD HH:MM:SS" UTC text, the format stored in TEXT timestamp columns.
//
//	SQLite:   datetime('now')
//	Postgres: to_char(NOW() AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS')
func Now(driver string) string {
	if IsPostgres(driver) {
		return "to_char(NOW() AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS')"
	}
	return "datetime('now')"
}

// NowDefault returns Now wrapped for use in a column DEFAULT clause.
func NowDefault(driver string) string {
	return "(" + Now(driver) + ")"
}
