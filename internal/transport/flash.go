package transport

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"unicode/utf8"
)

const flashCookie = "sheetmatch_flash"

// maxFlashMessage keeps the encoded cookie well under the 4 KB browsers accept.
const maxFlashMessage = 1024

type flashKind string

const (
	flashInfo  flashKind = "info"
	flashError flashKind = "error"
)

// flash is a one-shot message carried across the post/redirect/get cycle.
type flash struct {
	Kind    flashKind `json:"kind"`
	Message string    `json:"message"`
}

func (f *flash) IsError() bool {
	return f.Kind == flashError
}

func setFlash(w http.ResponseWriter, kind flashKind, message string) {
	data, err := json.Marshal(flash{Kind: kind, Message: truncateMessage(message)})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// truncateMessage cuts message to maxFlashMessage bytes on a rune boundary.
func truncateMessage(message string) string {
	if len(message) <= maxFlashMessage {
		return message
	}
	cut := maxFlashMessage - len("...")
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut] + "..."
}

// popFlash returns the pending flash, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
