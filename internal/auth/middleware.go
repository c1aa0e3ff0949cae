package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

/* ============================== JWT Claims ============================== */

// Claims is the session token payload. UserID is empty for firm-level logins.
type Claims struct {
	FirmID   uuid.UUID   `json:"firm_id"`
	FirmCode string      `json:"firm_code"`
	UserID   *uuid.UUID  `json:"user_id,omitempty"`
	Role     models.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

/* ============================== JWT Helpers ============================= */

// Tokens signs and parses HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the firm and, optionally, one of its users.
func (t *Tokens) Issue(firmID uuid.UUID, firmCode string, userID *uuid.UUID, role models.Role) (string, time.Time, error) {
	issued := t.now()
	exp := issued.Add(t.ttl)
	sub := firmID.String()
	if userID != nil {
		sub = userID.String()
	}
	claims := &Claims{
		FirmID:   firmID,
		FirmCode: firmCode,
		UserID:   userID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	return s, exp, err
}

// Parse validates signature, algorithm and expiry.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.FirmID == uuid.Nil {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

/* ============================== Middleware ============================== */

const claimsKey = "claims"

// Authenticate reads an optional Bearer token. No header means an anonymous
// request; a present but unusable header is rejected.
func Authenticate(tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if h == "" {
			return c.Next()
		}
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return apperr.Unauthorized()
		}
		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return apperr.Unauthorized()
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireToken rejects anonymous requests.
func RequireToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ClaimsFrom(c) == nil {
			return apperr.Unauthorized()
		}
		return c.Next()
	}
}

// ClaimsFrom returns the verified claims or nil.
func ClaimsFrom(c *fiber.Ctx) *Claims {
	if v, ok := c.Locals(claimsKey).(*Claims); ok {
		return v
	}
	return nil
}

// ActorID is the user id of the caller for audit entries, if known.
func ActorID(c *fiber.Ctx) *uuid.UUID {
	if cl := ClaimsFrom(c); cl != nil {
		return cl.UserID
	}
	return nil
}
