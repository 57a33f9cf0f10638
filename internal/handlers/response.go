package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tasukuchiba/duo_chat_app/internal/chat"
)

// エラーレスポンスの本文（クライアントとの互換性のため文言は固定）
const (
	msgInvalidUser  = "Usuário deve ser do tipo 'A' ou 'B'"
	msgUnauthorized = "Usuário não está logado"
	msgEmptyText    = "O texto é obrigatório"
	msgInternal     = "Erro interno do servidor"
)

// respondJSON はJSONレスポンスを送信する
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError は {"Erro": message} 形式のエラーレスポンスを送信する
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"Erro": message})
}

// errorStatus はサービスのエラーをHTTPステータスと本文に変換する
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrInvalidUser):
		return http.StatusBadRequest, msgInvalidUser
	case errors.Is(err, chat.ErrUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, chat.ErrEmptyText):
		return http.StatusBadRequest, msgEmptyText
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
