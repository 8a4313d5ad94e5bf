package models

import "github.com/golang-jwt/jwt/v5"

type AgentClaims struct {
	jwt.RegisteredClaims
	AgentID     string `json:"agent_id"`
	PhoneNumber string `json:"phone_number"`
}
