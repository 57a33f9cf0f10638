package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tasukuchiba/duo_chat_app/internal/chat"
	"github.com/tasukuchiba/duo_chat_app/internal/export"
	"github.com/tasukuchiba/duo_chat_app/internal/resolve"
	"github.com/tasukuchiba/duo_chat_app/internal/session"
	"github.com/tasukuchiba/duo_chat_app/internal/websocket"
)

// MessageHandler はログイン・送信・履歴取得のHTTPリクエストを処理する
type MessageHandler struct {
	service  *chat.Service
	sessions *session.Manager
	hub      *websocket.Hub
	logger   *slog.Logger
}

// NewMessageHandler は新しいMessageHandlerを作成する
// hub が nil の場合はWebSocketエンドポイントを登録しない
func NewMessageHandler(svc *chat.Service, sessions *session.Manager, hub *websocket.Hub, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{
		service:  svc,
		sessions: sessions,
		hub:      hub,
		logger:   logger,
	}
}

// RegisterRoutes は /message 配下のルートを登録する
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Route("/message", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Post("/send_message", h.sendMessage)
		r.Get("/user_messages", h.userMessages)
		r.Get("/export", h.exportMessages)
		if h.hub != nil {
			r.Get("/ws", h.serveWs)
		}
	})
}

// login はユーザーAまたはBとしてログインする
func (h *MessageHandler) login(w http.ResponseWriter, r *http.Request) {
	req := resolve.FromHTTP(r, "")

	res, err := h.service.Login(r.Context(), resolve.LoginUser(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.SetActiveUser(w, r, res.ActiveUser); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to save session", "request_id", middleware.GetReqID(r.Context()), "error", err)
		respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// logout はログイン状態を解除する（未ログインでも成功）
func (h *MessageHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to clear session", "request_id", middleware.GetReqID(r.Context()), "error", err)
		respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	respondJSON(w, http.StatusOK, h.service.Logout(r.Context()))
}

// sendMessage はセッションのユーザーとしてメッセージを送信し、ボット返信と合わせて返す
func (h *MessageHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	user := h.sessions.ActiveUser(r)
	req := resolve.FromHTTP(r, user)

	// 送信者は常にセッションから決める。クライアントが指定したユーザーは使わない
	if asserted := resolve.AssertedUser(req); asserted != "" && asserted != user {
		h.logger.WarnContext(r.Context(), "ignoring client-asserted user", "asserted", asserted, "session_user", user)
	}

	ex, err := h.service.Send(r.Context(), user, resolve.Text(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, ex)
}

// userMessages はログイン中のユーザーに見えるメッセージを古い順に返す
func (h *MessageHandler) userMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.List(r.Context(), h.sessions.ActiveUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

// exportMessages は閲覧可能な履歴をXLSXでダウンロードさせる
func (h *MessageHandler) exportMessages(w http.ResponseWriter, r *http.Request) {
	user := h.sessions.ActiveUser(r)
	messages, err := h.service.List(r.Context(), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, user, messages); err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(user, time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// serveWs はログイン中のユーザー宛ての新着メッセージを配信するWebSocketを開く
func (h *MessageHandler) serveWs(w http.ResponseWriter, r *http.Request) {
	user := h.sessions.ActiveUser(r)
	if user == "" {
		respondError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	websocket.ServeWs(h.hub, w, r, user)
}

// fail はエラーをレスポンスに変換し、サーバーエラーの場合はログに残す
func (h *MessageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
	}
	respondError(w, status, message)
}
