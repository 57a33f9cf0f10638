package resolve

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Precedence(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "body wins over everything",
			req: Request{
				Body:        map[string]any{"user": "A"},
				Header:      http.Header{UserHeader: {"B"}},
				Query:       url.Values{"user": {"B"}},
				SessionUser: "B",
			},
			want: "A",
		},
		{
			name: "header when body field empty",
			req: Request{
				Body:        map[string]any{"user": ""},
				Header:      http.Header{UserHeader: {"B"}},
				Query:       url.Values{"user": {"A"}},
				SessionUser: "A",
			},
			want: "B",
		},
		{
			name: "query when no header",
			req: Request{
				Body:        map[string]any{},
				Query:       url.Values{"user": {"B"}},
				SessionUser: "A",
			},
			want: "B",
		},
		{
			name: "session last",
			req:  Request{SessionUser: "A"},
			want: "A",
		},
		{
			name: "list body falls through",
			req:  Request{Body: []any{"user", "B"}, SessionUser: "A"},
			want: "A",
		},
		{
			name: "scalar body falls through",
			req:  Request{Body: "B", SessionUser: "A"},
			want: "A",
		},
		{
			name: "nothing anywhere",
			req:  Request{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, User(tt.req))
		})
	}
}

func TestAssertedUser_IgnoresSession(t *testing.T) {
	assert.Equal(t, "", AssertedUser(Request{SessionUser: "A"}))
	assert.Equal(t, "B", AssertedUser(Request{Header: http.Header{UserHeader: {"B"}}, SessionUser: "A"}))
}

func TestLoginUser(t *testing.T) {
	assert.Equal(t, "A", LoginUser(Request{Body: map[string]any{"user": "A"}, Query: url.Values{"user": {"B"}}}))
	assert.Equal(t, "B", LoginUser(Request{Query: url.Values{"user": {"B"}}}))
	// ログインはセッションやヘッダーを参照しない
	assert.Equal(t, "", LoginUser(Request{Header: http.Header{UserHeader: {"A"}}, SessionUser: "A"}))
}

func TestText_Precedence(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"body", Request{Body: map[string]any{"text": "hi"}, Query: url.Values{"text": {"q"}}}, "hi"},
		{"query when body empty", Request{Body: map[string]any{"text": ""}, Query: url.Values{"text": {"q"}}}, "q"},
		{"whitespace body is non-empty", Request{Body: map[string]any{"text": "  "}, Query: url.Values{"text": {"q"}}}, "  "},
		{"numeric body value", Request{Body: map[string]any{"text": float64(42)}}, "42"},
		{"nested value ignored", Request{Body: map[string]any{"text": map[string]any{"a": 1}}}, ""},
		{"list body", Request{Body: []any{"text"}}, ""},
		{"nil body", Request{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.req))
		})
	}
}

func TestParseBody(t *testing.T) {
	t.Run("json object", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi"}`))
		r.Header.Set("Content-Type", "application/json")
		assert.Equal(t, map[string]any{"text": "hi"}, ParseBody(r))
	})

	t.Run("json list", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2]`))
		assert.Equal(t, []any{float64(1), float64(2)}, ParseBody(r))
	})

	t.Run("form", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("user=A&text=hello"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, map[string]any{"user": "A", "text": "hello"}, ParseBody(r))
	})

	t.Run("malformed json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
		assert.Nil(t, ParseBody(r))
	})

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		assert.Nil(t, ParseBody(r))
	})
}

func TestFromHTTP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/?text=fromquery", strings.NewReader(`{"user":"B"}`))
	r.Header.Set(UserHeader, "A")

	req := FromHTTP(r, "A")
	assert.Equal(t, "B", User(req))
	assert.Equal(t, "fromquery", Text(req))
	assert.Equal(t, "A", req.SessionUser)
}
