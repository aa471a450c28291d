package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/tajweer/marketplace/internal/models"
)

// DefaultTTL is the access token lifetime used by all login paths.
const DefaultTTL = 30 * time.Minute

// ErrInvalid covers every resolution failure: bad signature, expiry, a
// missing subject claim or no user behind the claim. Callers map it to 401.
var ErrInvalid = errors.New("could not validate credentials")

// Service mints and resolves HS256 bearer tokens whose subject is the
// user's phone number.
type Service struct {
	DB     *gorm.DB
	Secret []byte
}

func (s *Service) Issue(phone string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	claims := jwt.MapClaims{
		"sub": phone,
		"exp": time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.Secret)
}

func (s *Service) Resolve(raw string) (*models.User, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalid
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}
	phone, ok := claims["sub"].(string)
	if !ok || phone == "" {
		return nil, ErrInvalid
	}

	var user models.User
	if err := s.DB.Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalid
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &user, nil
}
