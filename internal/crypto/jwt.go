package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService mints and validates the RS256 session tokens this service
// issues after a response validates successfully.
type JWTService struct {
	keySet *KeySet
	issuer string
}

func NewJWTService(keySet *KeySet, issuer string) *JWTService {
	return &JWTService{keySet: keySet, issuer: issuer}
}

// CreateAccessToken signs a token for subject with the registered claims
// plus any customClaims. The key id is carried in the header so verifiers
// can pick the key from the published JWKS.
func (s *JWTService) CreateAccessToken(subject string, audience string, scope string, duration time.Duration, customClaims map[string]interface{}) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss":   s.issuer,
		"sub":   subject,
		"aud":   audience,
		"exp":   now.Add(duration).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"scope": scope,
		"jti":   generateKeyID("jti"),
	}
	for k, v := range customClaims {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keySet.RSAKeyID()

	return token.SignedString(s.keySet.RSAPrivateKey())
}

// ValidateToken parses and verifies a token minted by this service and
// returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.keySet.RSAPublicKey(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}
	return claims, nil
}
