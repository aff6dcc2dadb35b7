package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/webtray/webtray/internal/models"
)

const userKey = "webtray.user"

type tokenIssuer struct {
	key   []byte
	clock clock.Clock
	ttl   time.Duration
}

func (t *tokenIssuer) issue(userID int64) (string, error) {
	now := t.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    "webtray",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (t *tokenIssuer) verify(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.clock.Now))
	if err != nil {
		return 0, errors.NewUnauthorized(err, "invalid token")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.NewUnauthorized(err, "invalid token subject")
	}
	return userID, nil
}

// authenticate resolves the bearer token to a user. Guarded servers reject
// requests without a valid token; unguarded ones only use it to scope stores.
func (s *Server) authenticate(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		if s.guarded {
			s.abort(c, errors.NewUnauthorized(nil, "authentication required"))
			return
		}
		c.Next()
		return
	}

	userID, err := s.tokens.verify(token)
	if err != nil {
		if s.guarded {
			s.abort(c, err)
			return
		}
		logger.Debugf("ignoring unusable token: %v", err)
		c.Next()
		return
	}
	c.Set(userKey, userID)
	c.Next()
}

func currentUser(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func (s *Server) login(c *gin.Context) {
	creds, ok := bindValid[models.Credentials](s, c)
	if !ok {
		return
	}
	user, err := s.repo.Authenticate(creds.Email, creds.Password)
	if err != nil {
		s.abort(c, err)
		return
	}
	token, err := s.tokens.issue(user.ID)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, models.AuthResult{User: user, Token: token}, "Login successful")
}

func (s *Server) me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		s.abort(c, errors.NewUnauthorized(nil, "authentication required"))
		return
	}
	user, err := s.repo.User(userID)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, user, "")
}
