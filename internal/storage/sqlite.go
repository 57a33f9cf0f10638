package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tasukuchiba/duo_chat_app/internal/models"
)

// messageRow はSQLite上のmessagesテーブルの行
// 作成日時はソート順を保証するためUnixナノ秒で保持する
type messageRow struct {
	Seq        uint    `gorm:"primaryKey;autoIncrement"`
	MessageID  string  `gorm:"column:id;size:36;not null;uniqueIndex"`
	UserSender string  `gorm:"size:32;not null;index:idx_messages_sender_created_at"`
	UserText   *string `gorm:"type:text"`
	BotText    *string `gorm:"type:text"`
	CreatedNs  int64   `gorm:"column:created_at;not null;index:idx_messages_sender_created_at"`
}

func (messageRow) TableName() string {
	return "messages"
}

// SQLiteStorage はGORM経由でメッセージをSQLiteに保存するストレージ
// ローカル開発用
type SQLiteStorage struct {
	db *gorm.DB
}

// NewSQLiteStorage は新しいSQLiteStorageを作成する
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// SQLiteは書き込みが単一接続前提
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&messageRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate messages table: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Save はメッセージを保存する
func (s *SQLiteStorage) Save(msg models.Message) error {
	row := messageRow{
		MessageID:  msg.ID,
		UserSender: msg.UserSender,
		UserText:   msg.UserText,
		BotText:    msg.BotText,
		CreatedNs:  msg.CreatedAt.UnixNano(),
	}
	return s.db.Create(&row).Error
}

// ListBySenders は指定した送信者タグのメッセージを取得する
func (s *SQLiteStorage) ListBySenders(senders ...string) ([]models.Message, error) {
	var rows []messageRow
	err := s.db.
		Where("user_sender IN ?", senders).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, models.Message{
			ID:         row.MessageID,
			UserSender: row.UserSender,
			UserText:   row.UserText,
			BotText:    row.BotText,
			CreatedAt:  time.Unix(0, row.CreatedNs).UTC(),
		})
	}
	return messages, nil
}

// Count は保存済みメッセージ数を返す
func (s *SQLiteStorage) Count() (int, error) {
	var count int64
	err := s.db.Model(&messageRow{}).Count(&count).Error
	return int(count), err
}

// Close はデータベース接続を閉じる
func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
