package app

import (
	"log"
	"net/http"
	"time"

	"citywatch/alertmedia/internal/handler"
	"citywatch/alertmedia/internal/ws"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	router *mux.Router
}

func NewServer(
	mediaHandler *handler.MediaHandler,
	transcriptionHandler *handler.TranscriptionHandler,
	workerHandler *handler.WorkerHandler,
	hub *ws.Hub,
) *Server {
	router := mux.NewRouter()

	// Routes
	mediaHandler.RegisterRoutes(router)
	transcriptionHandler.RegisterRoutes(router)
	workerHandler.RegisterRoutes(router)

	router.HandleFunc("/ping", handler.Ping).Methods("GET")

	if hub != nil {
		router.HandleFunc("/ws/alerts/{id}", ws.ServeWS(hub)).Methods("GET")
	}

	// Настройка Swagger
	swaggerHandler := httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Важно: относительный путь
	)

	router.PathPrefix("/swagger/").Handler(swaggerHandler)

	// Явно обслуживаем doc.json
	router.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	return &Server{router: router}
}

func (s *Server) Run(port string) {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Upload-Token", "X-Checksum-Sha256", "X-Requested-With"}),
	)

	srv := &http.Server{
		Handler:      cors(s.router),
		Addr:         ":" + port,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  30 * time.Second,
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(srv.ListenAndServe())
}
