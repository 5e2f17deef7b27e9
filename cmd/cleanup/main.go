package main

import (
	"context"
	"log"
	"time"

	"notesync/internal/config"
	"notesync/internal/repository/unitofwork"
	"notesync/pkg/database"
)

// Retention cleanup: rows soft-deleted longer ago than the retention window
// are hard-removed. Run from cron; normal application flows never hard-delete.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: Failed to connect to database: %v", err)
	}

	cutoff := time.Now().AddDate(0, 0, -cfg.Cleanup.RetentionDays)
	log.Printf("Purging rows soft-deleted before %s (retention %d days)", cutoff.Format(time.RFC3339), cfg.Cleanup.RetentionDays)

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	// Notes first so purged groups never leave orphans behind.
	notes, err := uow.NoteRepository().PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		log.Fatalf("Error: Failed to purge notes: %v", err)
	}
	groups, err := uow.GroupRepository().PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		log.Fatalf("Error: Failed to purge groups: %v", err)
	}

	log.Printf("Purged %d notes and %d groups", notes, groups)
}
