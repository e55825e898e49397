package utils

import (
	"chat-service/config"
	"chat-service/model"

	"github.com/golang-jwt/jwt/v5"
)

// CheckAndExtractIdentity validates a gateway-minted token and pulls the
// identity claims out of it. Tokens are issued by the upstream auth service;
// this side only verifies the shared key.
func CheckAndExtractIdentity(token string, key string) (model.CallerIdentity, error) {
	t, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Config(key)), nil
	})

	if err != nil {
		return model.CallerIdentity{}, err
	}

	if claims, ok := t.Claims.(jwt.MapClaims); ok && t.Valid {
		return model.CallerIdentity{
			UserID:      claimString(claims, "id"),
			DisplayName: claimString(claims, "name"),
			AvatarURL:   claimString(claims, "avatar"),
			Role:        claimString(claims, "role"),
		}, nil
	}

	return model.CallerIdentity{}, err
}

func claimString(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}
