package types

type RunMode string

const (
	// ModeLocal runs the API server together with the notification router
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server, notifications are published but not delivered
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)

type AuthProvider string

const (
	AuthProviderLocal    AuthProvider = "local"
	AuthProviderSupabase AuthProvider = "supabase"
)
