package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/tasukuchiba/duo_chat_app/internal/models"
)

// publishBuffer は配信待ちメッセージのバッファサイズ
const publishBuffer = 256

// Hub はWebSocketクライアントを管理し、保存済みメッセージを閲覧可能なクライアントにだけ配信する
type Hub struct {
	// 接続中のクライアント（Runのgoroutineだけが触る）
	clients map[*Client]bool

	// 配信用チャネル
	publish chan models.Message

	// クライアント登録用チャネル
	register chan *Client

	// クライアント登録解除用チャネル
	unregister chan *Client

	// Run終了時にクローズされる
	done chan struct{}

	count  atomic.Int64
	origin originChecker
	logger *slog.Logger
}

// OutgoingMessage はクライアントへ送信するメッセージの形式
type OutgoingMessage struct {
	Type    string         `json:"type"`
	Message models.Message `json:"message"`
}

// NewHub は新しいHubを作成する
// allowedOrigins が空の場合は同一オリジンのみ許可する
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		publish:    make(chan models.Message, publishBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		origin:     newOriginChecker(allowedOrigins),
		logger:     logger,
	}
}

// Run はHubのメインループを開始する。ctxが終了すると全クライアントを切断する
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Add(1)
			h.logger.Info("websocket client registered", "client_id", client.id, "user", client.user, "total", h.count.Load())

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Info("websocket client unregistered", "client_id", client.id, "user", client.user, "total", h.count.Load())
			}

		case msg := <-h.publish:
			data, err := json.Marshal(OutgoingMessage{Type: "message", Message: msg})
			if err != nil {
				h.logger.Error("failed to encode websocket message", "message_id", msg.ID, "error", err)
				continue
			}
			for client := range h.clients {
				if !msg.VisibleTo(client.user) {
					continue
				}
				select {
				case client.send <- data:
				default:
					// 送信が詰まっているクライアントは切断
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Add(-1)
}

// attach はクライアントを登録する。Hubが停止済みならfalse
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// detach はクライアントの登録を解除する
func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish は保存済みメッセージを配信キューに積む。キューが満杯の場合は破棄する
func (h *Hub) Publish(msgs ...models.Message) {
	for _, msg := range msgs {
		select {
		case h.publish <- msg:
		default:
			h.logger.Warn("websocket publish queue full, dropping message", "message_id", msg.ID)
		}
	}
}

// ClientCount は接続中のクライアント数を返す
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}
