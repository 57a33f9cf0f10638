package storage

import (
	"github.com/tasukuchiba/duo_chat_app/internal/models"
)

// Storage は追記専用のメッセージストレージのインターフェース
type Storage interface {
	// Save はメッセージを保存する
	Save(msg models.Message) error

	// ListBySenders は指定した送信者タグのメッセージを作成日時の昇順で取得する
	// 作成日時が同じ場合は挿入順
	ListBySenders(senders ...string) ([]models.Message, error)

	// Count は保存済みメッセージの総数を返す
	Count() (int, error)
}
