package security

import (
	"net/http"
	"strings"
	"time"
)

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequestIsHTTPS reports whether the request reached us over TLS, directly or through a
// proxy that set X-Forwarded-Proto.
func RequestIsHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func SetSessionCookie(w http.ResponseWriter, r *http.Request, name, token string, expiresAt time.Time, forceSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   forceSecure || RequestIsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, r *http.Request, name string, forceSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   forceSecure || RequestIsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}
