package session

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/tasukuchiba/duo_chat_app/internal/models"
)

// DefaultCookieName はセッションCookieの既定名
const DefaultCookieName = "duochat_session"

const (
	activeUserKey = "active_user"
	// 2週間
	defaultMaxAge = 14 * 24 * 60 * 60
)

// Options はセッションCookieの設定
type Options struct {
	Secret     []byte
	CookieName string
	Secure     bool
	MaxAge     int
}

// Manager はクライアントごとのセッション（ログイン中のユーザー）を管理する
// 状態は署名付きCookieに保持され、プロセス全体で共有される値は持たない
type Manager struct {
	store sessions.Store
	name  string
}

// NewManager は新しいManagerを作成する
func NewManager(opts Options) *Manager {
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	maxAge := opts.MaxAge
	if maxAge == 0 {
		maxAge = defaultMaxAge
	}

	store := sessions.NewCookieStore(opts.Secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{store: store, name: name}
}

// ActiveUser はログイン中のユーザーを返す
// Cookieが無い・改ざんされている・値が不正な場合は空文字
func (m *Manager) ActiveUser(r *http.Request) string {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		return ""
	}
	user, _ := sess.Values[activeUserKey].(string)
	if !models.IsValidUser(user) {
		return ""
	}
	return user
}

// SetActiveUser はログイン中のユーザーを設定する
func (m *Manager) SetActiveUser(w http.ResponseWriter, r *http.Request, user string) error {
	// 不正なCookieの場合でも新しいセッションが返るのでエラーは無視する
	sess, _ := m.store.Get(r, m.name)
	sess.Values[activeUserKey] = user
	return sess.Save(r, w)
}

// Clear はログイン状態を解除する（未ログインでもエラーにしない）
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	delete(sess.Values, activeUserKey)
	return sess.Save(r, w)
}
