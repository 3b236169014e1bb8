package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"gramcare-backend/utils"
)

const (
	verificationCodeDigits = 4
	maxVerifyAttempts      = 5
	tokenPurpose           = "phone_verification"
)

type pendingCode struct {
	hash      []byte
	expiresAt time.Time
	attempts  int
}

type VerificationConfig struct {
	CodeTTL            time.Duration
	BcryptCost         int
	JWTSecret          string
	TokenTTL           time.Duration
	DefaultCountryCode string
}

// VerificationService sends one-time SMS codes and exchanges a correct code for a JWT.
type VerificationService struct {
	mu      sync.Mutex
	pending map[string]*pendingCode

	sender   MessageSender
	cfg      VerificationConfig
	now      func() time.Time
	generate func() (string, error)
}

func NewVerificationService(sender MessageSender, cfg VerificationConfig) *VerificationService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 5 * time.Minute
	}
	if cfg.BcryptCost < bcrypt.MinCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &VerificationService{
		pending:  make(map[string]*pendingCode),
		sender:   sender,
		cfg:      cfg,
		now:      time.Now,
		generate: randomCode,
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", verificationCodeDigits, n.Int64()+1000), nil
}

// SendCode texts a fresh code to phone, replacing any earlier one.
func (s *VerificationService) SendCode(ctx context.Context, phone string) (time.Duration, error) {
	phone = utils.CleanPhoneNumber(phone, s.cfg.DefaultCountryCode)
	if !utils.IsValidPhone(phone) {
		return 0, validationError("invalid phone number")
	}
	if s.sender == nil {
		return 0, external("twilio", ErrNotConfigured)
	}

	code, err := s.generate()
	if err != nil {
		return 0, fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash code: %w", err)
	}

	s.mu.Lock()
	s.dropExpiredLocked()
	s.pending[phone] = &pendingCode{hash: hash, expiresAt: s.now().Add(s.cfg.CodeTTL)}
	s.mu.Unlock()

	body := fmt.Sprintf("Your GramCare verification code is %s. It expires in %d minutes.", code, int(s.cfg.CodeTTL.Minutes()))
	if err := s.sender.SendTextMessage(ctx, phone, body); err != nil {
		s.mu.Lock()
		delete(s.pending, phone)
		s.mu.Unlock()
		return 0, err
	}
	return s.cfg.CodeTTL, nil
}

// Verify checks code for phone. On success the code is consumed and a signed token returned.
// The token is empty when no JWT secret is configured.
func (s *VerificationService) Verify(phone, code string) (string, error) {
	phone = utils.CleanPhoneNumber(phone, s.cfg.DefaultCountryCode)

	s.mu.Lock()
	entry, ok := s.pending[phone]
	if !ok {
		s.mu.Unlock()
		return "", ErrCodeNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.pending, phone)
		s.mu.Unlock()
		return "", ErrCodeExpired
	}
	entry.attempts++
	if entry.attempts > maxVerifyAttempts {
		delete(s.pending, phone)
		s.mu.Unlock()
		return "", ErrCodeExpired
	}
	hash := entry.hash
	s.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword(hash, []byte(code)); err != nil {
		return "", ErrCodeMismatch
	}

	s.mu.Lock()
	delete(s.pending, phone)
	s.mu.Unlock()

	return s.issueToken(phone)
}

func (s *VerificationService) issueToken(phone string) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", nil
	}

	now := s.now().UTC()
	claims := jwt.MapClaims{
		"sub":     phone,
		"purpose": tokenPurpose,
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken returns the verified phone number carried by a token.
func (s *VerificationService) ValidateToken(tokenString string) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", ErrNotConfigured
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["purpose"] != tokenPurpose {
		return "", errors.New("invalid token")
	}
	phone, _ := claims["sub"].(string)
	return phone, nil
}

func (s *VerificationService) dropExpiredLocked() {
	now := s.now()
	for phone, entry := range s.pending {
		if now.After(entry.expiresAt) {
			delete(s.pending, phone)
		}
	}
}
