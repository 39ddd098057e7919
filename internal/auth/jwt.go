package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenLifetime is how long a login token stays valid. There is no refresh.
	TokenLifetime = 24 * time.Hour
	// FileLinkLifetime bounds the signed download links embedded in exports.
	FileLinkLifetime = 7 * 24 * time.Hour

	purposeSession = "session"
	purposeFile    = "file"
)

// ErrInvalidToken covers bad signatures, expiry, malformed tokens and tokens
// issued for another purpose.
var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the identity carried by a verified session token.
type Principal struct {
	UserID int64
	Role   string
}

// Claims are the custom JWT claims issued by this service.
type Claims struct {
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens with one secret.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager returns a TokenManager using the given signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// GenerateToken creates a session token for a user, valid for TokenLifetime.
func (m *TokenManager) GenerateToken(userID int64, role string) (string, error) {
	issued := m.now()
	claims := Claims{
		Role:    role,
		Purpose: purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenLifetime)),
		},
	}
	return m.sign(claims)
}

// ValidateToken parses a session token and returns its principal.
func (m *TokenManager) ValidateToken(tokenString string) (Principal, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return Principal{}, err
	}
	if claims.Purpose != purposeSession {
		return Principal{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: invalid subject claim", ErrInvalidToken)
	}
	return Principal{UserID: userID, Role: claims.Role}, nil
}

// SignFileLink issues a token that authorises downloading one stored file.
func (m *TokenManager) SignFileLink(filename string) (string, error) {
	issued := m.now()
	claims := Claims{
		Purpose: purposeFile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   filename,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(FileLinkLifetime)),
		},
	}
	return m.sign(claims)
}

// ValidateFileLink checks that tokenString was issued for filename.
func (m *TokenManager) ValidateFileLink(tokenString, filename string) error {
	claims, err := m.parse(tokenString)
	if err != nil {
		return err
	}
	if claims.Purpose != purposeFile || claims.Subject != filename {
		return ErrInvalidToken
	}
	return nil
}

func (m *TokenManager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
