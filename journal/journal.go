package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout は固定長なので、文字列比較で時刻順に並びます。
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Journal は、配信済みのターンを SQLite に記録する診断用ジャーナルです。
type Journal struct {
	db *sql.DB
}

// Entry は 1 ターン分の記録です。
type Entry struct {
	TurnID     string
	Epoch      uint64
	At         time.Time
	Scene      string
	System     string
	User       string
	Raw        string
	Dropped    int
	Duplicates int
	Fallback   bool
	Voices     []Voice
}

// Voice は、ターン内の 1 行分の発話です。
type Voice struct {
	VoiceID      string
	Reason       string
	Text         string
	Check        string
	RespondingTo string
}

// Summary は Recent が返す一覧用の要約です。
type Summary struct {
	TurnID     string
	Epoch      uint64
	At         time.Time
	Scene      string
	Voices     int
	Dropped    int
	Duplicates int
	Fallback   bool
}

// Open は path の SQLite を開き (なければ作成し)、マイグレーションを適用します。
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("journal.Open: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("journal.Open: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal.Open: migrate: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	if _, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var version int
	if err := j.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return err
	}

	if version < 1 {
		if _, err := j.db.Exec(`
			CREATE TABLE IF NOT EXISTS turns (
				turn_id    TEXT    PRIMARY KEY,
				epoch      INTEGER NOT NULL,
				at         TEXT    NOT NULL,
				scene      TEXT    NOT NULL,
				system     TEXT    NOT NULL DEFAULT '',
				user       TEXT    NOT NULL DEFAULT '',
				raw        TEXT    NOT NULL DEFAULT '',
				dropped    INTEGER NOT NULL DEFAULT 0,
				duplicates INTEGER NOT NULL DEFAULT 0,
				fallback   INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_turns_at ON turns(at);

			CREATE TABLE IF NOT EXISTS turn_voices (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				turn_id       TEXT    NOT NULL REFERENCES turns(turn_id) ON DELETE CASCADE,
				position      INTEGER NOT NULL,
				voice_id      TEXT    NOT NULL,
				reason        TEXT    NOT NULL,
				text          TEXT    NOT NULL,
				dice          TEXT    NOT NULL DEFAULT '',
				responding_to TEXT    NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_turn_voices_turn ON turn_voices(turn_id);
		`); err != nil {
			return err
		}
		if _, err := j.db.Exec(`INSERT INTO schema_version (version) VALUES (1)`); err != nil {
			return err
		}
	}
	return nil
}

// Close はデータベースを閉じます。
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record は 1 ターンを 1 トランザクションで書き込みます。
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.TurnID == "" {
		return fmt.Errorf("journal.Record: empty turn id")
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal.Record: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO turns (turn_id, epoch, at, scene, system, user, raw, dropped, duplicates, fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TurnID, int64(e.Epoch), e.At.UTC().Format(timeLayout), e.Scene,
		e.System, e.User, e.Raw, e.Dropped, e.Duplicates, boolInt(e.Fallback),
	); err != nil {
		return fmt.Errorf("journal.Record: insert turn: %w", err)
	}

	for i, v := range e.Voices {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO turn_voices (turn_id, position, voice_id, reason, text, dice, responding_to)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.TurnID, i, v.VoiceID, v.Reason, v.Text, v.Check, v.RespondingTo,
		); err != nil {
			return fmt.Errorf("journal.Record: insert voice: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal.Record: commit: %w", err)
	}
	return nil
}

// Recent は新しい順に最大 limit 件の要約を返します。
func (j *Journal) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT t.turn_id, t.epoch, t.at, t.scene, t.dropped, t.duplicates, t.fallback,
			(SELECT COUNT(*) FROM turn_voices v WHERE v.turn_id = t.turn_id)
		FROM turns t
		ORDER BY t.at DESC, t.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal.Recent: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s        Summary
			epoch    int64
			at       string
			fallback int
		)
		if err := rows.Scan(&s.TurnID, &epoch, &at, &s.Scene, &s.Dropped, &s.Duplicates, &fallback, &s.Voices); err != nil {
			return nil, fmt.Errorf("journal.Recent: scan: %w", err)
		}
		s.Epoch = uint64(epoch)
		s.At, _ = time.Parse(timeLayout, at)
		s.Fallback = fallback != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal.Recent: %w", err)
	}
	return out, nil
}

// Voices は turnID の発話を配信順に返します。
func (j *Journal) Voices(ctx context.Context, turnID string) ([]Voice, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT voice_id, reason, text, dice, responding_to
		FROM turn_voices WHERE turn_id = ? ORDER BY position`, turnID)
	if err != nil {
		return nil, fmt.Errorf("journal.Voices: %w", err)
	}
	defer rows.Close()

	var out []Voice
	for rows.Next() {
		var v Voice
		if err := rows.Scan(&v.VoiceID, &v.Reason, &v.Text, &v.Check, &v.RespondingTo); err != nil {
			return nil, fmt.Errorf("journal.Voices: scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
