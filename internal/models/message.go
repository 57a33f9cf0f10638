package models

import "time"

// 固定の利用者識別子
const (
	UserA = "A"
	UserB = "B"
)

// botSenderPrefix はボット返信の送信者タグの接頭辞
const botSenderPrefix = "Usuário: "

var displayNames = map[string]string{
	UserA: "Usuário A",
	UserB: "Usuário B",
}

// Message はユーザー発言またはボット返信を表す構造体
// UserText と BotText はどちらか一方だけが設定される
type Message struct {
	ID         string    `json:"id"`
	UserSender string    `json:"user_sender"`
	UserText   *string   `json:"user_text"`
	BotText    *string   `json:"bot_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserMessage はユーザー発言のメッセージを作成する
func NewUserMessage(user, text string) Message {
	return Message{UserSender: user, UserText: &text}
}

// NewBotMessage は指定ユーザー宛てのボット返信を作成する
func NewBotMessage(user, text string) Message {
	return Message{UserSender: BotSenderTag(user), BotText: &text}
}

// IsBot はボット返信かどうかを返す
func (m Message) IsBot() bool {
	return m.BotText != nil
}

// Text は発言本文を返す
func (m Message) Text() string {
	if m.BotText != nil {
		return *m.BotText
	}
	if m.UserText != nil {
		return *m.UserText
	}
	return ""
}

// IsValidUser は A または B かどうかを判定する（大文字小文字は区別する）
func IsValidUser(user string) bool {
	_, ok := displayNames[user]
	return ok
}

// DisplayName は表示名を返す
func DisplayName(user string) string {
	if name, ok := displayNames[user]; ok {
		return name
	}
	return user
}

// BotSenderTag はユーザー宛てボット返信の送信者タグを返す
func BotSenderTag(user string) string {
	return botSenderPrefix + user
}

// VisibleSenders はユーザーが閲覧できる送信者タグを返す
func VisibleSenders(user string) []string {
	return []string{user, BotSenderTag(user)}
}

// VisibleTo はメッセージが指定ユーザーに見えるかどうかを返す
func (m Message) VisibleTo(user string) bool {
	if !IsValidUser(user) {
		return false
	}
	return m.UserSender == user || m.UserSender == BotSenderTag(user)
}
