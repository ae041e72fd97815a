// Package sqlite provides a persistent DatabaseAdapter backed by SQLite
// through the pure-Go modernc.org driver. Embeddings are stored as raw
// float32 blobs and ranked by cosine similarity in process, which is
// adequate for the memory counts a single agent accumulates.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cipherwebllc/eliza/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT NOT NULL,
	tbl        TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	agent_id   TEXT NOT NULL,
	room_id    TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	embedding  BLOB,
	is_unique  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (tbl, id)
);
CREATE INDEX IF NOT EXISTS idx_memories_room ON memories(tbl, room_id, created_at);

CREATE TABLE IF NOT EXISTS rooms (
	id TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS accounts (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	username TEXT NOT NULL,
	email    TEXT NOT NULL DEFAULT '',
	details  TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS participants (
	user_id TEXT NOT NULL,
	room_id TEXT NOT NULL,
	PRIMARY KEY (user_id, room_id)
);

CREATE TABLE IF NOT EXISTS goals (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL,
	objectives TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cache (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// Store implements core.DatabaseAdapter over a SQLite database file.
type Store struct {
	db *sql.DB
}

var (
	_ core.DatabaseAdapter = (*Store)(nil)
	_ core.CacheAdapter    = (*Store)(nil)
)

// Open opens or creates the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The driver rejects concurrent writes on a single connection pool
	// member, so serialize access through one connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateMemory(ctx context.Context, table string, memory *core.Memory, unique bool) error {
	if unique {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM memories WHERE tbl = ? AND room_id = ? AND json_extract(content, '$.text') = ?`,
			table, memory.RoomID.String(), memory.Content.Text,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("check memory uniqueness: %w", err)
		}
		if n > 0 {
			return nil
		}
	}

	content, err := json.Marshal(memory.Content)
	if err != nil {
		return fmt.Errorf("encode memory content: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO memories (id, tbl, user_id, agent_id, room_id, content, created_at, embedding, is_unique)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		memory.ID.String(), table, memory.UserID.String(), memory.AgentID.String(), memory.RoomID.String(),
		string(content), memory.CreatedAt, encodeEmbedding(memory.Embedding), boolToInt(unique),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

func (s *Store) GetMemories(ctx context.Context, table string, opts core.GetMemoriesOptions) ([]core.Memory, error) {
	query := `SELECT id, user_id, agent_id, room_id, content, created_at, embedding FROM memories
		WHERE tbl = ? AND room_id = ?`
	args := []any{table, opts.RoomID.String()}
	if opts.Unique {
		query += ` AND is_unique = 1`
	}
	if opts.Start != 0 {
		query += ` AND created_at >= ?`
		args = append(args, opts.Start)
	}
	if opts.End != 0 {
		query += ` AND created_at <= ?`
		args = append(args, opts.End)
	}
	query += ` ORDER BY created_at DESC`
	if opts.Count > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Count)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

func (s *Store) GetMemoriesByRoomIDs(ctx context.Context, table string, roomIDs []uuid.UUID) ([]core.Memory, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, user_id, agent_id, room_id, content, created_at, embedding FROM memories
		WHERE tbl = ? AND room_id IN (`
	args := []any{table}
	for i, id := range roomIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id.String())
	}
	query += `) ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories by rooms: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

func (s *Store) GetMemoryByID(ctx context.Context, table string, id uuid.UUID) (*core.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, agent_id, room_id, content, created_at, embedding FROM memories
		 WHERE tbl = ? AND id = ?`, table, id.String())
	m, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *Store) SearchMemories(ctx context.Context, table string, embedding []float32, opts core.SearchMemoriesOptions) ([]core.Memory, error) {
	query := `SELECT id, user_id, agent_id, room_id, content, created_at, embedding FROM memories
		WHERE tbl = ? AND room_id = ? AND embedding IS NOT NULL`
	args := []any{table, opts.RoomID.String()}
	if opts.Unique {
		query += ` AND is_unique = 1`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories for search: %w", err)
	}
	defer rows.Close()

	candidates, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}

	var out []core.Memory
	for _, m := range candidates {
		sim := cosineSimilarity(embedding, m.Embedding)
		if sim < opts.MatchThreshold {
			continue
		}
		m.Similarity = sim
		out = append(out, m)
	}
	sortBySimilarityDesc(out)
	if opts.Count > 0 && len(out) > opts.Count {
		out = out[:opts.Count]
	}
	return out, nil
}

func (s *Store) RemoveMemory(ctx context.Context, table string, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE tbl = ? AND id = ?`, table, id.String())
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

func (s *Store) RemoveAllMemories(ctx context.Context, table string, roomID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE tbl = ? AND room_id = ?`, table, roomID.String())
	if err != nil {
		return fmt.Errorf("delete memories: %w", err)
	}
	return nil
}

func (s *Store) CountMemories(ctx context.Context, table string, roomID uuid.UUID, unique bool) (int, error) {
	query := `SELECT COUNT(*) FROM memories WHERE tbl = ? AND room_id = ?`
	if unique {
		query += ` AND is_unique = 1`
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, table, roomID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID uuid.UUID) (*core.Room, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ?`, roomID.String()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &core.Room{ID: roomID}, nil
}

func (s *Store) CreateRoom(ctx context.Context, roomID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO rooms (id) VALUES (?)`, roomID.String())
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *Store) GetAccountByID(ctx context.Context, userID uuid.UUID) (*core.Account, error) {
	var (
		id, name, username, email, details string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, username, email, details FROM accounts WHERE id = ?`, userID.String(),
	).Scan(&id, &name, &username, &email, &details)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	account := core.Account{ID: userID, Name: name, Username: username, Email: email}
	if err := json.Unmarshal([]byte(details), &account.Details); err != nil {
		return nil, fmt.Errorf("decode account details: %w", err)
	}
	return &account, nil
}

func (s *Store) CreateAccount(ctx context.Context, account core.Account) error {
	details, err := json.Marshal(account.Details)
	if err != nil {
		return fmt.Errorf("encode account details: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO accounts (id, name, username, email, details) VALUES (?, ?, ?, ?, ?)`,
		account.ID.String(), account.Name, account.Username, account.Email, string(details),
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetParticipantsForAccount(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT room_id FROM participants WHERE user_id = ?`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("query participants for account: %w", err)
	}
	defer rows.Close()
	return scanUUIDs(rows)
}

func (s *Store) GetParticipantsForRoom(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM participants WHERE room_id = ?`, roomID.String())
	if err != nil {
		return nil, fmt.Errorf("query participants for room: %w", err)
	}
	defer rows.Close()
	return scanUUIDs(rows)
}

func (s *Store) AddParticipant(ctx context.Context, userID, roomID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO participants (user_id, room_id) VALUES (?, ?)`,
		userID.String(), roomID.String(),
	)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *Store) GetRoomsForParticipants(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT room_id FROM participants WHERE user_id IN (`
	var args []any
	for i, id := range userIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id.String())
	}
	query += `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rooms for participants: %w", err)
	}
	defer rows.Close()
	return scanUUIDs(rows)
}

func (s *Store) GetGoals(ctx context.Context, opts core.GetGoalsOptions) ([]core.Goal, error) {
	query := `SELECT id, room_id, user_id, name, status, objectives, created_at FROM goals WHERE room_id = ?`
	args := []any{opts.RoomID.String()}
	if opts.UserID != nil {
		query += ` AND user_id = ?`
		args = append(args, opts.UserID.String())
	}
	if opts.OnlyInProgress {
		query += ` AND status = ?`
		args = append(args, string(core.GoalStatusInProgress))
	}
	query += ` ORDER BY created_at DESC`
	if opts.Count > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Count)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			idStr, roomStr, userStr, name, status, objectives string
			createdAt                                         int64
		)
		if err := rows.Scan(&idStr, &roomStr, &userStr, &name, &status, &objectives, &createdAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goal := core.Goal{
			Name:      name,
			Status:    core.GoalStatus(status),
			CreatedAt: createdAt,
		}
		if goal.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse goal id: %w", err)
		}
		if goal.RoomID, err = uuid.Parse(roomStr); err != nil {
			return nil, fmt.Errorf("parse goal room id: %w", err)
		}
		if goal.UserID, err = uuid.Parse(userStr); err != nil {
			return nil, fmt.Errorf("parse goal user id: %w", err)
		}
		if err := json.Unmarshal([]byte(objectives), &goal.Objectives); err != nil {
			return nil, fmt.Errorf("decode goal objectives: %w", err)
		}
		out = append(out, goal)
	}
	return out, rows.Err()
}

func (s *Store) CreateGoal(ctx context.Context, goal core.Goal) error {
	if goal.CreatedAt == 0 {
		goal.CreatedAt = core.NowMillis()
	}
	objectives, err := json.Marshal(goal.Objectives)
	if err != nil {
		return fmt.Errorf("encode goal objectives: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO goals (id, room_id, user_id, name, status, objectives, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		goal.ID.String(), goal.RoomID.String(), goal.UserID.String(),
		goal.Name, string(goal.Status), string(objectives), goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (s *Store) UpdateGoal(ctx context.Context, goal core.Goal) error {
	objectives, err := json.Marshal(goal.Objectives)
	if err != nil {
		return fmt.Errorf("encode goal objectives: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET room_id = ?, user_id = ?, name = ?, status = ?, objectives = ? WHERE id = ?`,
		goal.RoomID.String(), goal.UserID.String(), goal.Name, string(goal.Status), string(objectives), goal.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveGoal(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// Get implements core.CacheAdapter so the store can double as the
// persistence layer behind a cache manager.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO cache (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*core.Memory, error) {
	var (
		idStr, userStr, agentStr, roomStr, content string
		createdAt                                  int64
		embedding                                  []byte
	)
	if err := row.Scan(&idStr, &userStr, &agentStr, &roomStr, &content, &createdAt, &embedding); err != nil {
		return nil, err
	}
	m := core.Memory{CreatedAt: createdAt, Embedding: decodeEmbedding(embedding)}
	var err error
	if m.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse memory id: %w", err)
	}
	if m.UserID, err = uuid.Parse(userStr); err != nil {
		return nil, fmt.Errorf("parse memory user id: %w", err)
	}
	if m.AgentID, err = uuid.Parse(agentStr); err != nil {
		return nil, fmt.Errorf("parse memory agent id: %w", err)
	}
	if m.RoomID, err = uuid.Parse(roomStr); err != nil {
		return nil, fmt.Errorf("parse memory room id: %w", err)
	}
	if err := json.Unmarshal([]byte(content), &m.Content); err != nil {
		return nil, fmt.Errorf("decode memory content: %w", err)
	}
	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]core.Memory, error) {
	var out []core.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanUUIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// encodeEmbedding packs a vector as little-endian float32 bytes. Nil and
// empty vectors are stored as NULL.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func sortBySimilarityDesc(memories []core.Memory) {
	sort.Slice(memories, func(i, j int) bool {
		return memories[i].Similarity > memories[j].Similarity
	})
}
