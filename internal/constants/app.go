package constants

// Application Information
const (
	AppName    = "Contacts API"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Gin context keys set by the auth middleware
const (
	CtxUser      = "current_user"
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix = "contacts:"
	CacheKeyUser   = CacheKeyPrefix + "user:"
)
