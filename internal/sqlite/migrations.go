package sqlite

func (s *Storage) RunMigrations() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sync_records (
		universal_event_id VARCHAR NOT NULL,
		provider VARCHAR NOT NULL,
		provider_event_id VARCHAR NOT NULL,
		calendar_id VARCHAR NOT NULL,
		synced_at VARCHAR NOT NULL,
		PRIMARY KEY (universal_event_id, provider)
	)`,
}
