package config

import "strings"

const allowedOriginVar = "CORS_ALLOWED_ORIGIN"

type Cors struct{}

var _ CorsConfig = Cors{}

// GetAllowedOrigin returns the single browser origin allowed to send credentialed requests.
func (Cors) GetAllowedOrigin() string {
	return strings.TrimRight(GetEnv(allowedOriginVar, "http://localhost:3000"), "/")
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, DELETE, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
