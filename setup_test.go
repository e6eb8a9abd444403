package feedcore_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/arllen133/feedcore"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_digest TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX idx_posts_user_id ON posts(user_id);

CREATE TABLE follows (
	follower_id INTEGER NOT NULL REFERENCES users(id),
	followed_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	PRIMARY KEY (follower_id, followed_id)
);
CREATE INDEX idx_follows_followed ON follows(followed_id);
`

func setupTestDB(t *testing.T) (*sql.DB, *feedcore.Session) {
	t.Helper()

	driver := os.Getenv("TEST_DRIVER")
	dsn := os.Getenv("TEST_DSN")

	if driver == "" {
		driver = "sqlite3"
		dsn = ":memory:"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var dialect feedcore.Dialect
	switch driver {
	case "mysql":
		dialect = &feedcore.MySQLDialect{}
	case "postgres":
		dialect = &feedcore.PostgreSQLDialect{}
	default:
		dialect = &feedcore.SQLiteDialect{}
		// An in-memory sqlite database exists per connection; pin the
		// pool to one so every statement sees the same schema.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			t.Fatalf("Failed to enable foreign keys: %v", err)
		}
		if _, err := db.Exec(testSchema); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}

	session := feedcore.NewSession(db, dialect)
	return db, session
}

// fastVerifier keeps test runs quick; production uses bcrypt.DefaultCost.
var fastVerifier = feedcore.BcryptVerifier{Cost: bcrypt.MinCost}

func newUserStore(session *feedcore.Session) *feedcore.UserStore {
	return feedcore.NewUserStore(session, feedcore.WithCredentialVerifier(fastVerifier))
}

// mustCreateUser seeds a valid user or fails the test.
func mustCreateUser(t *testing.T, users *feedcore.UserStore, name, email string) *feedcore.User {
	t.Helper()
	user, err := users.Create(context.Background(), name, email, "testpass", "testpass")
	if err != nil {
		t.Fatalf("Failed to create user %q: %v", email, err)
	}
	return user
}

// mustCreatePost seeds a post or fails the test.
func mustCreatePost(t *testing.T, posts *feedcore.PostStore, ownerID int64, content string) *feedcore.Post {
	t.Helper()
	post, err := posts.Create(context.Background(), ownerID, content)
	if err != nil {
		t.Fatalf("Failed to create post for user %d: %v", ownerID, err)
	}
	return post
}
