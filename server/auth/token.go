package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	issuer = "cadence"
	// AccessTokenAudience is the audience claim stamped on every token.
	AccessTokenAudience = "user.access-token"
	// AccessTokenDuration is how long an access token stays valid.
	AccessTokenDuration = 7 * 24 * time.Hour
)

// ClaimsMessage is the payload carried by an access token.
type ClaimsMessage struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an HS256 access token for the user.
func GenerateAccessToken(username string, userID int32, expirationTime time.Time, secret []byte) (string, error) {
	registeredClaims := jwt.RegisteredClaims{
		Issuer:   issuer,
		Audience: jwt.ClaimStrings{AccessTokenAudience},
		IssuedAt: jwt.NewNumericDate(time.Now()),
		Subject:  strconv.Itoa(int(userID)),
	}
	if !expirationTime.IsZero() {
		registeredClaims.ExpiresAt = jwt.NewNumericDate(expirationTime)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{
		Name:             username,
		RegisteredClaims: registeredClaims,
	})
	return token.SignedString(secret)
}

// ParseAccessToken verifies the token signature and audience and
// returns the user id it was issued to.
func ParseAccessToken(tokenString string, secret []byte) (int32, error) {
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "invalid access token")
	}

	audienceOK := false
	for _, audience := range claims.Audience {
		if audience == AccessTokenAudience {
			audienceOK = true
			break
		}
	}
	if !audienceOK {
		return 0, errors.Errorf("invalid token audience %v", claims.Audience)
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("malformed token subject %q", claims.Subject)
	}
	return int32(userID), nil
}
