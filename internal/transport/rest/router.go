package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	_ "chatform/docs"
	"chatform/internal/service"
	"chatform/internal/transport/rest/handler"
	"chatform/internal/transport/rest/middleware"
	"chatform/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	SurveyService    *service.SurveyService
	ResponseService  *service.ResponseService
	AssistantService *service.AssistantService
	WSHub            *ws.Hub
	AllowedOrigins   []string
	Log              zerolog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService, c.Log)
	responseHandler := handler.NewResponseHandler(c.ResponseService, c.Log)
	chatHandler := handler.NewChatHandler(c.AssistantService, c.Log)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SurveyService, c.AllowedOrigins, c.Log)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))
	r.Use(middleware.AccessLog(c.Log))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/surveys/{slug}", surveyHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/surveys/{slug}", responseHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/surveys/{slug}/questions", surveyHandler.Questions).Methods("GET", "OPTIONS")
	v1.HandleFunc("/surveys/{slug}/limits-usage", surveyHandler.LimitsUsage).Methods("GET", "OPTIONS")
	v1.HandleFunc("/chat", chatHandler.Chat).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/surveys/{slug}/owner", wsHandler.OwnerWS).Methods("GET")

	// Owner routes (require owner auth)
	ownerRoutes := v1.NewRoute().Subrouter()
	ownerRoutes.Use(authMW.RequireOwner)

	ownerRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	ownerRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	ownerRoutes.HandleFunc("/surveys/{slug}/responses", responseHandler.List).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	origins := strings.Join(allowedOrigins, ", ")
	if origins == "" {
		origins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
