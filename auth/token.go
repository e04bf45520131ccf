package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the HTTP-only cookie carrying the session token.
const SessionCookieName = "auth_token"

const (
	sessionTTL = 24 * time.Hour
	resetTTL   = time.Hour

	resetScope = "password_reset"
)

// Claims carried by session and reset tokens.
type Claims struct {
	UserID uint
	Email  string
}

// Tokens creates and verifies the application's JWTs. The signing key comes
// from configuration, injected once at startup.
type Tokens struct {
	secret       []byte
	cookieDomain string
	cookieSecure bool
}

func NewTokens(secret, cookieDomain string, cookieSecure bool) *Tokens {
	return &Tokens{
		secret:       []byte(secret),
		cookieDomain: cookieDomain,
		cookieSecure: cookieSecure,
	}
}

// CreateSessionToken signs a session token for the user.
func (t *Tokens) CreateSessionToken(userID uint, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub":   fmt.Sprint(userID),
			"email": email,
			"exp":   time.Now().Add(sessionTTL).Unix(),
		})
	return token.SignedString(t.secret)
}

// CreateResetToken signs a short-lived token accepted only by the
// password-reset endpoint.
func (t *Tokens) CreateResetToken(userID uint, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub":   fmt.Sprint(userID),
			"email": email,
			"scope": resetScope,
			"exp":   time.Now().Add(resetTTL).Unix(),
		})
	return token.SignedString(t.secret)
}

// VerifySessionToken parses and validates a session token. Reset-scoped tokens
// are rejected: they must not open a session.
func (t *Tokens) VerifySessionToken(tokenString string) (*Claims, error) {
	claims, err := t.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if scope, _ := claims["scope"].(string); scope != "" {
		return nil, fmt.Errorf("token scope %q not valid for a session", scope)
	}
	return mapClaims(claims)
}

// VerifyResetToken parses and validates a password-reset token.
func (t *Tokens) VerifyResetToken(tokenString string) (*Claims, error) {
	claims, err := t.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if scope, _ := claims["scope"].(string); scope != resetScope {
		return nil, fmt.Errorf("token is not a password reset token")
	}
	return mapClaims(claims)
}

func (t *Tokens) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func mapClaims(claims jwt.MapClaims) (*Claims, error) {
	sub, _ := claims["sub"].(string)
	var userID uint
	if _, err := fmt.Sscan(sub, &userID); err != nil || userID == 0 {
		return nil, fmt.Errorf("invalid subject claim")
	}
	email, _ := claims["email"].(string)
	return &Claims{UserID: userID, Email: email}, nil
}

// SetSessionCookie writes the session token to the auth cookie.
func (t *Tokens) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   t.cookieDomain,
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   t.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the auth cookie.
func (t *Tokens) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   t.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
