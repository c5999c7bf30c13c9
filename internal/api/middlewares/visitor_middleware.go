package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	CookieName = "visitor"
	visitorTTL = 30 * 24 * time.Hour
)

type contextKey string

const visitorKey contextKey = "visitor_id"

// Visitors issues and checks the signed cookie that tells anonymous
// visitors apart. It identifies a browser, it does not authenticate anyone.
type Visitors struct {
	secret []byte
	secure bool
	log    *logrus.Entry
	now    func() time.Time
}

func NewVisitors(secret string, secure bool, log *logrus.Entry) *Visitors {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Visitors{secret: []byte(secret), secure: secure, log: log, now: time.Now}
}

// Issue signs a token whose subject is the visitor id.
func (v *Visitors) Issue(visitorID string) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   visitorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(visitorTTL)),
	})
	return token.SignedString(v.secret)
}

// Parse returns the visitor id carried by a valid token.
func (v *Visitors) Parse(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid visitor token: %w", err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.New("invalid visitor token subject")
	}
	return claims.Subject, nil
}

// Middleware attaches the visitor id to the request context, issuing a new
// cookie when the request has none or an invalid one.
func (v *Visitors) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var visitorID string
		if c, err := r.Cookie(CookieName); err == nil {
			if id, err := v.Parse(c.Value); err == nil {
				visitorID = id
			} else {
				v.log.WithError(err).Debug("replacing visitor cookie")
			}
		}

		if visitorID == "" {
			visitorID = uuid.NewString()
			token, err := v.Issue(visitorID)
			if err != nil {
				v.log.WithError(err).Error("could not sign visitor cookie")
			} else {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(visitorTTL / time.Second),
					HttpOnly: true,
					Secure:   v.secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
		}

		ctx := context.WithValue(r.Context(), visitorKey, visitorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VisitorID returns the id set by the middleware.
func VisitorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorKey).(string)
	return id, ok && id != ""
}

// WithVisitorID is used by tests and the CLI to bypass the cookie.
func WithVisitorID(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, visitorKey, visitorID)
}
