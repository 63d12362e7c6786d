package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MemberClaims bind a member token to one room. The jti makes every issued
// token unique, so membership can be counted by token.
type MemberClaims struct {
	RoomID string `json:"room_id"`
	jwt.RegisteredClaims
}

// MintMemberToken issues the capability credential returned by Join. The
// token is never stored outside the room's metadata and never reissued;
// possession is the only access control.
func MintMemberToken(secret []byte, roomID string, ttl time.Duration) (string, error) {
	claims := &MemberClaims{
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseMemberToken verifies a token's signature and room binding. It does not
// re-check membership against the store: a validly signed token for the right
// room is trusted, which makes token leakage equal to room compromise.
func ParseMemberToken(secret []byte, roomID, raw string) (*MemberClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &MemberClaims{}, func(token *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse member token: %w", err)
	}

	claims, ok := token.Claims.(*MemberClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid member token")
	}

	if claims.RoomID != roomID {
		return nil, errors.New("member token issued for another room")
	}

	return claims, nil
}
