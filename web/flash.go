// ABOUTME: One-shot flash notifications carried across redirects in a cookie
// ABOUTME: Written after a form post and cleared by the next rendered page
package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/harperreed/dealboard/notify"
	"github.com/labstack/echo/v4"
)

const flashCookie = "dealboard_flash"

func setFlash(c echo.Context, notes []notify.Notification) {
	raw, err := json.Marshal(notes)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads pending notes and expires the cookie.
func takeFlash(c echo.Context) []notify.Notification {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var notes []notify.Notification
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil
	}
	return notes
}
