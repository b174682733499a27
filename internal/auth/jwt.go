package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail verification or carry no usable subject
var ErrInvalidToken = errors.New("invalid token")

// GenerateToken issues an HS256 token whose subject is userID
func GenerateToken(userID int64, secretKey []byte, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", errors.New("user ID must be positive")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

// ValidateToken checks the signature and expiry and returns the user id from "sub".
// Both string and numeric subjects are accepted.
func ValidateToken(tokenString string, secretKey []byte) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	var userID int64
	switch sub := claims["sub"].(type) {
	case string:
		userID, err = strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
		}
	case float64:
		userID = int64(sub)
	default:
		return 0, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	if userID <= 0 {
		return 0, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return userID, nil
}
