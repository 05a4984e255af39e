package cookies

import (
	"net/http"
	"time"
)

const (
	AccessToken  = "accessToken"
	RefreshToken = "refreshToken"
)

// * Set ставит httpOnly куку на весь сайт; Secure включается в проде.
func Set(w http.ResponseWriter, name, value string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func Clear(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func SetPair(w http.ResponseWriter, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration, secure bool) {
	Set(w, AccessToken, accessToken, accessTTL, secure)
	Set(w, RefreshToken, refreshToken, refreshTTL, secure)
}

func ClearPair(w http.ResponseWriter, secure bool) {
	Clear(w, AccessToken, secure)
	Clear(w, RefreshToken, secure)
}
