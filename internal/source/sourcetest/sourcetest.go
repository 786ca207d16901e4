// Package sourcetest 用 sqlite 模拟旧 MySQL 表结构
package sourcetest

import (
	"database/sql"
	_ "github.com/mattn/go-sqlite3"
	"path/filepath"
	"testing"
	"time"
)

const legacySchema = `
CREATE TABLE threads (
	tid INTEGER PRIMARY KEY,
	created DATETIME NOT NULL,
	subject TEXT NOT NULL,
	deleted BOOLEAN NOT NULL,
	hash TEXT
);
CREATE TABLE posts (
	pid INTEGER PRIMARY KEY,
	tid INTEGER NOT NULL,
	created DATETIME NOT NULL,
	content TEXT NOT NULL,
	options TEXT NOT NULL,
	ipaddress TEXT NOT NULL,
	username TEXT,
	tripraw TEXT,
	image TEXT
);
CREATE TABLE bans (
	` + "`range`" + ` TEXT UNIQUE,
	created DATETIME NOT NULL,
	note TEXT
);
`

// NewLegacyDB 在临时目录创建空的旧结构数据库
func NewLegacyDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "legacy.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(legacySchema); err != nil {
		t.Fatal(err)
	}
	return db
}

func InsertThread(t *testing.T, db *sql.DB, tid int64, created time.Time, subject string, deleted bool, hash any) {
	t.Helper()
	_, err := db.Exec("INSERT INTO threads (tid, created, subject, deleted, hash) VALUES (?, ?, ?, ?, ?)",
		tid, created, subject, deleted, hash)
	if err != nil {
		t.Fatal(err)
	}
}

// InsertPost 使用默认的 options 和 ipaddress
func InsertPost(t *testing.T, db *sql.DB, pid, tid int64, created time.Time, content string, username, tripraw, image any) {
	t.Helper()
	InsertPostWith(t, db, pid, tid, created, content, "", "127.0.0.1", username, tripraw, image)
}

func InsertPostWith(t *testing.T, db *sql.DB, pid, tid int64, created time.Time, content, options, ipaddress string, username, tripraw, image any) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO posts (pid, tid, created, content, options, ipaddress, username, tripraw, image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, tid, created, content, options, ipaddress, username, tripraw, image)
	if err != nil {
		t.Fatal(err)
	}
}

func InsertBan(t *testing.T, db *sql.DB, rng string, created time.Time, note any) {
	t.Helper()
	_, err := db.Exec("INSERT INTO bans (`range`, created, note) VALUES (?, ?, ?)", rng, created, note)
	if err != nil {
		t.Fatal(err)
	}
}
