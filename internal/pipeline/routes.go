package pipeline

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/moku180/legalaichatbot/internal/tenant"
)

// RegisterRoutes mounts the chat query API route.
func RegisterRoutes(r chi.Router, p *Pipeline) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/query", handleQuery(p))
	})
}

type queryRequest struct {
	Query string `json:"query"`
}

func handleQuery(p *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
			return
		}

		orgID := tenant.OrganizationID(r.Context())
		userID := tenant.UserID(r.Context())
		resp, err := p.Run(r.Context(), orgID, userID, req.Query)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
