// Package resolve picks the acting user and message text out of a request.
//
// Every lookup is a pure function of a Request snapshot. Sources are tried
// in a fixed order and the first non-empty value wins; a body that is not a
// key-value object is skipped rather than treated as an error.
package resolve

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// UserHeader carries a client-asserted identity.
const UserHeader = "X-User"

const maxBodyBytes = 1 << 20

// Request is the part of an inbound request the resolver looks at.
type Request struct {
	Body        any
	Header      http.Header
	Query       url.Values
	SessionUser string
}

// FromHTTP builds a Request from r. The body is consumed.
func FromHTTP(r *http.Request, sessionUser string) Request {
	return Request{
		Body:        ParseBody(r),
		Header:      r.Header,
		Query:       r.URL.Query(),
		SessionUser: sessionUser,
	}
}

// ParseBody decodes a JSON or form body. Anything unreadable yields nil.
func ParseBody(r *http.Request) any {
	if r.Body == nil {
		return nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil
		}
		return formToMap(r.PostForm)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil
		}
		return formToMap(r.PostForm)
	}

	var body any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil
	}
	return body
}

func formToMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key := range values {
		out[key] = values.Get(key)
	}
	return out
}

// User resolves the acting user: body "user", then the X-User header,
// then the "user" query parameter, then the session.
func User(req Request) string {
	if user := bodyField(req.Body, "user"); user != "" {
		return user
	}
	if user := req.Header.Get(UserHeader); user != "" {
		return user
	}
	if user := req.Query.Get("user"); user != "" {
		return user
	}
	return req.SessionUser
}

// AssertedUser is User without the session fallback.
func AssertedUser(req Request) string {
	req.SessionUser = ""
	return User(req)
}

// LoginUser resolves the login candidate from the body or the query string.
func LoginUser(req Request) string {
	if user := bodyField(req.Body, "user"); user != "" {
		return user
	}
	return req.Query.Get("user")
}

// Text resolves the message text: body "text", then the "text" query
// parameter, then the body field once more.
func Text(req Request) string {
	if text := bodyField(req.Body, "text"); text != "" {
		return text
	}
	if text := req.Query.Get("text"); text != "" {
		return text
	}
	return bodyField(req.Body, "text")
}

// bodyField returns body[key] as a string when body is an object and the
// value is a scalar.
func bodyField(body any, key string) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
