package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Finished study sessions
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			duration_mins INTEGER NOT NULL DEFAULT 0,
			present_mins REAL NOT NULL DEFAULT 0,
			absent_mins REAL NOT NULL DEFAULT 0,
			focus_percentage REAL NOT NULL DEFAULT 0,
			absences_count INTEGER NOT NULL DEFAULT 0,
			grade TEXT NOT NULL CHECK(grade IN ('excellent', 'great', 'good', 'needs_work')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Side-effect events routed to plugin actions
		`CREATE TABLE IF NOT EXISTS hooks (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Key-value application settings
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_subject ON sessions(subject)`,
		`CREATE INDEX IF NOT EXISTS idx_hooks_event ON hooks(event)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
