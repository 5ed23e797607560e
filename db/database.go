package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okonma/citymood/db/models"
	"github.com/okonma/citymood/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Database represents the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating if needed) the sqlite store under saveLocation.
func NewDatabase(saveLocation string) (*Database, error) {
	if err := os.MkdirAll(saveLocation, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(saveLocation, "citymood.db")

	// Databases written by the pre-ORM collector have a posts table without
	// the city column; those need a one-time migration.
	needsMigration, err := checkOldSchema(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check database schema: %w", err)
	}

	logConfig := gormlogger.Config{
		LogLevel: gormlogger.Warn, // Log only warnings and errors
		Colorful: false,
	}

	gdb, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dbPath}, &gorm.Config{
		Logger: gormlogger.New(
			logger.Logger,
			logConfig,
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if needsMigration {
		if err := migrateOldSchema(gdb); err != nil {
			return nil, fmt.Errorf("failed to migrate old schema: %w", err)
		}
	}

	if err := gdb.AutoMigrate(&models.Post{}, &models.Comment{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{DB: gdb}, nil
}

// checkOldSchema checks if the database has the old schema
func checkOldSchema(dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); err != nil {
		// No database yet, nothing to migrate.
		return false, nil
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return false, nil
	}
	defer sqlDB.Close()

	var count int
	err = sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                         WHERE type='table' AND name='posts'
                         AND sql LIKE '%post_id TEXT UNIQUE%'
                         AND sql NOT LIKE '%city%'`).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// migrateOldSchema carries rows from the pre-ORM tables into the current
// schema. Legacy rows have no city tag, so the subreddit stands in for it.
func migrateOldSchema(gdb *gorm.DB) error {
	logger.Logger.Printf("Migrating legacy database schema")

	if err := gdb.Exec(`ALTER TABLE posts RENAME TO posts_legacy`).Error; err != nil {
		return err
	}

	hasLegacyComments := gdb.Migrator().HasTable("comments")
	if hasLegacyComments {
		if err := gdb.Exec(`ALTER TABLE comments RENAME TO comments_legacy`).Error; err != nil {
			return err
		}
	}

	if err := gdb.AutoMigrate(&models.Post{}, &models.Comment{}); err != nil {
		return err
	}

	if err := gdb.Exec(`INSERT INTO posts (post_id, city, subreddit, title, selftext, full_text,
                        author, url, permalink, source, score, upvote_ratio, num_comments,
                        positive, neutral, negative, compound, sentiment, sentiment_bucket, text_length,
                        posted_at, fetched_at, created_at, updated_at)
                      SELECT post_id, subreddit, subreddit, title, text, full_text,
                        author, url, permalink, source, score, upvote_ratio, num_comments,
                        positive, neutral, negative, compound, sentiment, sentiment_bucket, text_length,
                        created_utc, fetched_at, created_at, updated_at
                      FROM posts_legacy`).Error; err != nil {
		return err
	}

	if hasLegacyComments {
		if err := gdb.Exec(`INSERT INTO comments (comment_id, post_id, city, subreddit, author, body,
                            score, depth, permalink,
                            positive, neutral, negative, compound, sentiment, sentiment_bucket, text_length,
                            posted_at, fetched_at, created_at, updated_at)
                          SELECT comment_id, post_id, subreddit, subreddit, author, body,
                            score, depth, permalink,
                            positive, neutral, negative, compound, sentiment, sentiment_bucket, text_length,
                            created_utc, fetched_at, created_at, updated_at
                          FROM comments_legacy`).Error; err != nil {
			return err
		}
		if err := gdb.Exec(`DROP TABLE comments_legacy`).Error; err != nil {
			return err
		}
	}

	if err := gdb.Exec(`DROP TABLE posts_legacy`).Error; err != nil {
		return err
	}

	logger.Logger.Printf("Legacy schema migration complete")
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
