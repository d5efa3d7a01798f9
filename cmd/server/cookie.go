package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sessionCookieName = "pricecheck_session"

// cookieSigner binds a browser to an in-memory price check. The cookie
// carries the session id and an HMAC over it.
type cookieSigner struct {
	secret []byte
}

func newCookieSigner(secret string) *cookieSigner {
	return &cookieSigner{secret: []byte(secret)}
}

func (c *cookieSigner) sign(id uuid.UUID) string {
	payload := id.String()
	return payload + "." + hex.EncodeToString(c.mac(payload))
}

func (c *cookieSigner) verify(value string) (uuid.UUID, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return uuid.Nil, false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return uuid.Nil, false
	}
	if !hmac.Equal(provided, c.mac(payload)) {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(payload)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *cookieSigner) mac(payload string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func (c *cookieSigner) setCookie(w http.ResponseWriter, id uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    c.sign(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *cookieSigner) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
