package api

import (
	"database/sql"
	"net/http"

	"github.com/mithaiwala/sweetshop/internal/model"
	"github.com/mithaiwala/sweetshop/internal/upload"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, uploads *upload.Store) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	sweetsHandler := &SweetsHandler{DB: db}
	uploadsHandler := &UploadsHandler{Uploads: uploads}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: registration, login, health, uploaded files.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(uploads.Dir()))))

	// Authenticated account management.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Sweets: read and purchase (any authenticated user), write (admin).
	mux.Handle("GET /api/sweets", authMW(http.HandlerFunc(sweetsHandler.List)))
	mux.Handle("GET /api/sweets/search", authMW(http.HandlerFunc(sweetsHandler.Search)))
	mux.Handle("POST /api/sweets", authMW(requireAdmin(http.HandlerFunc(sweetsHandler.Create))))
	mux.Handle("PUT /api/sweets/{id}", authMW(requireAdmin(http.HandlerFunc(sweetsHandler.Update))))
	mux.Handle("DELETE /api/sweets/{id}", authMW(requireAdmin(http.HandlerFunc(sweetsHandler.Delete))))
	mux.Handle("POST /api/sweets/{id}/purchase", authMW(http.HandlerFunc(sweetsHandler.Purchase)))
	mux.Handle("POST /api/sweets/{id}/restock", authMW(requireAdmin(http.HandlerFunc(sweetsHandler.Restock))))

	// Image uploads (admin).
	mux.Handle("POST /api/uploads", authMW(requireAdmin(http.HandlerFunc(uploadsHandler.Upload))))

	return mux
}
