package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/tasukuchiba/duo_chat_app/internal/models"
)

// PostgresStorage はメッセージをPostgreSQLに保存するストレージ
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage は新しいPostgresStorageを作成する
func NewPostgresStorage(databaseURL string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// 接続プール設定
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 接続確認
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	storage := &PostgresStorage{db: db}

	// マイグレーション実行
	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate messages table: %w", err)
	}

	return storage, nil
}

// migrate はデータベーススキーマを作成する
// seq は作成日時が同じ行の挿入順を保つために使う
func (s *PostgresStorage) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS messages (
			seq BIGSERIAL PRIMARY KEY,
			id VARCHAR(36) NOT NULL UNIQUE,
			user_sender VARCHAR(32) NOT NULL,
			user_text TEXT,
			bot_text TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			CHECK ((user_text IS NULL) <> (bot_text IS NULL))
		);
		CREATE INDEX IF NOT EXISTS idx_messages_sender_created_at ON messages(user_sender, created_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save はメッセージを保存する
func (s *PostgresStorage) Save(msg models.Message) error {
	query := `
		INSERT INTO messages (id, user_sender, user_text, bot_text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(query, msg.ID, msg.UserSender, nullString(msg.UserText), nullString(msg.BotText), msg.CreatedAt)
	return err
}

// ListBySenders は指定した送信者タグのメッセージを取得する
func (s *PostgresStorage) ListBySenders(senders ...string) ([]models.Message, error) {
	query := `
		SELECT id, user_sender, user_text, bot_text, created_at
		FROM messages
		WHERE user_sender = ANY($1)
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := s.db.Query(query, pq.Array(senders))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		var userText, botText sql.NullString
		if err := rows.Scan(&msg.ID, &msg.UserSender, &userText, &botText, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.UserText = stringPtr(userText)
		msg.BotText = stringPtr(botText)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// Count は保存済みメッセージ数を返す
func (s *PostgresStorage) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// Close はデータベース接続を閉じる
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
