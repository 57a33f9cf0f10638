package storage

import (
	"testing"
	"time"

	"github.com/tasukuchiba/duo_chat_app/internal/models"
)

func TestMemoryStorage_Save(t *testing.T) {
	store := NewMemoryStorage()
	msg := models.NewUserMessage("A", "Hello")
	msg.ID = "test-id"

	err := store.Save(msg)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	messages, err := store.ListBySenders("A")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].ID != "test-id" {
		t.Errorf("expected ID 'test-id', got '%s'", messages[0].ID)
	}
}

func TestMemoryStorage_ListBySenders(t *testing.T) {
	store := NewMemoryStorage()

	// 空の状態
	messages, err := store.ListBySenders("A", "Usuário: A")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if messages == nil || len(messages) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", messages)
	}

	now := time.Now()
	save := func(msg models.Message, id string, at time.Time) {
		msg.ID = id
		msg.CreatedAt = at
		if err := store.Save(msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	save(models.NewUserMessage("A", "Hello"), "1", now)
	save(models.NewBotMessage("A", "Obrigado"), "2", now.Add(time.Millisecond))
	save(models.NewUserMessage("B", "Hi"), "3", now.Add(2*time.Millisecond))
	save(models.NewBotMessage("B", "Obrigado"), "4", now.Add(3*time.Millisecond))

	messages, err = store.ListBySenders(models.VisibleSenders("A")...)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	for _, msg := range messages {
		if !msg.VisibleTo("A") {
			t.Errorf("unexpected sender %q in A's history", msg.UserSender)
		}
	}
}

func TestMemoryStorage_OrderingByCreatedAt(t *testing.T) {
	store := NewMemoryStorage()
	now := time.Now()

	// 挿入順と作成日時の順が異なる場合は作成日時を優先
	late := models.NewUserMessage("A", "late")
	late.ID, late.CreatedAt = "late", now.Add(time.Second)
	early := models.NewUserMessage("A", "early")
	early.ID, early.CreatedAt = "early", now
	// 同時刻の場合は挿入順
	tie1 := models.NewUserMessage("A", "tie1")
	tie1.ID, tie1.CreatedAt = "tie1", now.Add(2*time.Second)
	tie2 := models.NewUserMessage("A", "tie2")
	tie2.ID, tie2.CreatedAt = "tie2", now.Add(2*time.Second)

	for _, msg := range []models.Message{late, early, tie1, tie2} {
		store.Save(msg)
	}

	messages, _ := store.ListBySenders("A")
	want := []string{"early", "late", "tie1", "tie2"}
	for i, id := range want {
		if messages[i].ID != id {
			t.Errorf("position %d: expected '%s', got '%s'", i, id, messages[i].ID)
		}
	}
}

func TestMemoryStorage_Count(t *testing.T) {
	store := NewMemoryStorage()
	store.Save(models.NewUserMessage("A", "Hello"))
	store.Save(models.NewUserMessage("B", "Hi"))

	count, err := store.Count()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 messages, got %d", count)
	}
}

func TestMemoryStorage_ListReturnsCopy(t *testing.T) {
	store := NewMemoryStorage()
	store.Save(models.NewUserMessage("A", "Hello"))

	messages, _ := store.ListBySenders("A")
	*messages[0].UserText = "Modified"

	original, _ := store.ListBySenders("A")
	if *original[0].UserText != "Hello" {
		t.Error("ListBySenders should return a copy, not original data")
	}
}

// TestMemoryStorage_ImplementsStorage はMemoryStorageがStorageインターフェースを実装していることを確認する
func TestMemoryStorage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*MemoryStorage)(nil)
}
