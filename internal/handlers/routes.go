package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{
		Accounts: deps.Accounts,
		Sessions: deps.Sessions,
		Limiter:  deps.AuthLimiter,
		Secure:   deps.Secure,
	}
	users := UserHandler{Accounts: deps.Accounts, Views: deps.Views}

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return requireAuth(deps.Tokens, next)
	}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/users/register", auth.Register)
	mux.HandleFunc("/api/v1/users/login", auth.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", auth.Refresh)
	mux.HandleFunc("/api/v1/users/logout", authed(auth.Logout))
	mux.HandleFunc("/api/v1/users/change-password", authed(auth.ChangePassword))
	mux.HandleFunc("/api/v1/users/current-user", authed(users.CurrentUser))
	mux.HandleFunc("/api/v1/users/update-account", authed(users.UpdateAccount))
	mux.HandleFunc("/api/v1/users/avatar", authed(users.UpdateAvatar))
	mux.HandleFunc("/api/v1/users/cover-image", authed(users.UpdateCoverImage))
	mux.HandleFunc("/api/v1/users/c/{username}", authed(users.ChannelProfile))
	mux.HandleFunc("/api/v1/users/history", authed(users.WatchHistory))
	mux.HandleFunc("/api/v1/users/history/{videoId}", authed(users.RecordWatch))
}
