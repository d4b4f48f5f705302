package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Log is the SQLite-backed conversation log. One Log serves one active
// session at a time; listing operations span all sessions.
type Log struct {
	db        *sql.DB
	logger    *slog.Logger
	sessionID string
	autoSave  bool
}

// SetAutoSave controls whether every Append also refreshes the
// session's last_active timestamp. Off, last_active moves only on
// LoadSession and SaveSession.
func (l *Log) SetAutoSave(on bool) {
	l.autoSave = on
}

// Open opens (creating if needed) the conversation database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	l := &Log{db: db, logger: logger}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return l, nil
}

func (l *Log) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		last_active TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		timestamp TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, timestamp);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

// SessionID returns the active session id, empty if none is loaded.
func (l *Log) SessionID() string {
	return l.sessionID
}

// LoadSession makes sessionID the active session, creating it if it
// does not exist and touching last_active either way. Loading an
// existing session never duplicates it.
func (l *Log) LoadSession(sessionID string) error {
	now := time.Now().UTC()

	_, err := l.db.Exec(`
		INSERT OR IGNORE INTO sessions (session_id, created_at, last_active)
		VALUES (?, ?, ?)
	`, sessionID, now, now)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	_, err = l.db.Exec(`
		UPDATE sessions SET last_active = ? WHERE session_id = ?
	`, now, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	l.sessionID = sessionID
	l.logger.Debug("session loaded", "session_id", sessionID)
	return nil
}

// Append records one message in the active session.
func (l *Log) Append(role, content string) error {
	return l.AppendWithMetadata(role, content, nil)
}

// AppendWithMetadata records one message with optional structured
// annotations, stored as JSON. A nil metadata map stores NULL.
func (l *Log) AppendWithMetadata(role, content string, metadata map[string]any) error {
	if l.sessionID == "" {
		return ErrNoSession
	}

	msgID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate message id: %w", err)
	}

	var meta any
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(raw)
	}

	now := time.Now().UTC()
	_, err = l.db.Exec(`
		INSERT INTO messages (id, session_id, role, content, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msgID.String(), l.sessionID, role, content, meta, now)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	if l.autoSave {
		if _, err := l.db.Exec(`
			UPDATE sessions SET last_active = ? WHERE session_id = ?
		`, now, l.sessionID); err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
	}
	return nil
}

// RecentMessages returns up to limit of the newest messages in the
// active session, in chronological order. With no session loaded it
// returns an empty slice rather than an error.
func (l *Log) RecentMessages(limit int) ([]StoredMessage, error) {
	if l.sessionID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.Query(`
		SELECT id, role, content, metadata, timestamp FROM messages
		WHERE session_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, l.sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []StoredMessage
	for rows.Next() {
		var m StoredMessage
		var meta sql.NullString
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &meta, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &m.Metadata); err != nil {
				l.logger.Warn("bad message metadata", "message_id", m.ID, "error", err)
			}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Query is newest-first; flip to chronological for the model.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Stats returns message count and timing for the active session. With
// no session loaded it returns a zero-value result rather than an error.
func (l *Log) Stats() (*SessionStats, error) {
	if l.sessionID == "" {
		return &SessionStats{}, nil
	}

	stats := &SessionStats{SessionID: l.sessionID}

	err := l.db.QueryRow(`
		SELECT COUNT(*) FROM messages WHERE session_id = ?
	`, l.sessionID).Scan(&stats.MessageCount)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	err = l.db.QueryRow(`
		SELECT created_at, last_active FROM sessions WHERE session_id = ?
	`, l.sessionID).Scan(&stats.StartTime, &stats.LastActive)
	if err != nil {
		return nil, fmt.Errorf("session info: %w", err)
	}

	return stats, nil
}

// Clear deletes all messages in the active session. The session row
// itself survives. A no-op with no session loaded.
func (l *Log) Clear() error {
	if l.sessionID == "" {
		return nil
	}

	_, err := l.db.Exec(`DELETE FROM messages WHERE session_id = ?`, l.sessionID)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	l.logger.Info("session cleared", "session_id", l.sessionID)
	return nil
}

// SaveSession touches last_active on the active session. Message writes
// already persist as they happen. A no-op with no session loaded.
func (l *Log) SaveSession() error {
	if l.sessionID == "" {
		return nil
	}

	_, err := l.db.Exec(`
		UPDATE sessions SET last_active = ? WHERE session_id = ?
	`, time.Now().UTC(), l.sessionID)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// RecentSessions lists sessions across the database, most recently
// active first, with their message counts.
func (l *Log) RecentSessions(limit int) ([]SessionInfo, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.db.Query(`
		SELECT s.session_id, s.created_at, s.last_active,
		       (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.session_id)
		FROM sessions s
		ORDER BY s.last_active DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var si SessionInfo
		if err := rows.Scan(&si.SessionID, &si.CreatedAt, &si.LastActive, &si.MessageCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
