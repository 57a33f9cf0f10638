package storage

import (
	"sort"
	"sync"

	"github.com/tasukuchiba/duo_chat_app/internal/models"
)

// MemoryStorage はメッセージをメモリ上に保存するストレージ
type MemoryStorage struct {
	mu       sync.RWMutex
	messages []models.Message
}

// NewMemoryStorage は新しいMemoryStorageを作成する
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		messages: make([]models.Message, 0),
	}
}

// Save はメッセージを保存する
func (s *MemoryStorage) Save(msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, cloneMessage(msg))
	return nil
}

// ListBySenders は指定した送信者タグのメッセージを取得する
func (s *MemoryStorage) ListBySenders(senders ...string) ([]models.Message, error) {
	wanted := make(map[string]struct{}, len(senders))
	for _, sender := range senders {
		wanted[sender] = struct{}{}
	}

	s.mu.RLock()
	result := make([]models.Message, 0)
	for _, msg := range s.messages {
		if _, ok := wanted[msg.UserSender]; ok {
			result = append(result, cloneMessage(msg))
		}
	}
	s.mu.RUnlock()

	// 挿入順を保ったまま作成日時でソート
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Count は保存済みメッセージ数を返す
func (s *MemoryStorage) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages), nil
}

// cloneMessage はテキストのポインタも含めてコピーする
func cloneMessage(msg models.Message) models.Message {
	if msg.UserText != nil {
		text := *msg.UserText
		msg.UserText = &text
	}
	if msg.BotText != nil {
		text := *msg.BotText
		msg.BotText = &text
	}
	return msg
}
