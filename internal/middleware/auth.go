package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ErnestWetherell/microcanvas-m1/internal/models"
)

const (
	SessionCookie = "session"
	userKey       = "current_user"
)

type SessionClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// UserLoader resolves the user a session belongs to.
type UserLoader func(c echo.Context, id uint) (*models.User, error)

type Sessions struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

func (s Sessions) sign(userID uint, now time.Time) (string, error) {
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	return token, errors.Wrap(err, "sign session")
}

func (s Sessions) parse(raw string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid session")
	}
	return token.Claims.(*SessionClaims), nil
}

// Issue signs a session for the user and stores it in the session cookie.
func (s Sessions) Issue(c echo.Context, u *models.User) error {
	token, err := s.sign(u.ID, time.Now())
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	SetCurrentUser(c, u)
	return nil
}

func (s Sessions) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	SetCurrentUser(c, nil)
}

// LoadSession attaches the signed-in user to the request when the session
// cookie is valid. It never rejects a request.
func (s Sessions) LoadSession(load UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := s.parse(cookie.Value)
			if err != nil {
				return next(c)
			}
			u, err := load(c, claims.UserID)
			if err == nil {
				SetCurrentUser(c, u)
			}
			return next(c)
		}
	}
}

// RequireUser sends anonymous visitors to the login page.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return c.Redirect(http.StatusFound, "/auth/login")
		}
		return next(c)
	}
}

func SetCurrentUser(c echo.Context, u *models.User) {
	c.Set(userKey, u)
}

func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}
