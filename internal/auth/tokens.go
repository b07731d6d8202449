package auth

import (
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
	"errors"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func (s *Service) issue(user *models.User) (*Session, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		Issuer:    config.TokenIssuer,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, ExpiresAt: exp, User: user}, nil
}

func (s *Service) parse(token string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, errors.New("missing token")
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.TokenIssuer),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return claims, err
	}
	if strings.TrimSpace(claims.ID) == "" || strings.TrimSpace(claims.Subject) == "" {
		return claims, errors.New("token claims incomplete")
	}
	return claims, nil
}
