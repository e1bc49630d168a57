package ingest

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/moku180/legalaichatbot/internal/tenant"
)

const maxUploadBytes = 32 << 20

// RegisterRoutes mounts the document API routes. uploadDir receives the
// raw uploaded files.
func RegisterRoutes(r chi.Router, store *Store, processor *Processor, uploadDir string) {
	r.Route("/api/documents", func(r chi.Router) {
		r.Post("/", handleUpload(store, processor, uploadDir))
		r.Get("/", handleList(store))
		r.Get("/{id}", handleGetByID(store))
		r.Delete("/{id}", handleDelete(store, processor))
	})
}

func handleUpload(store *Store, processor *Processor, uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, `{"error":"invalid multipart form"}`, http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, `{"error":"file is required"}`, http.StatusBadRequest)
			return
		}
		defer file.Close()

		orgID := tenant.OrganizationID(r.Context())
		id := uuid.New().String()
		destDir := filepath.Join(uploadDir, orgID)
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			http.Error(w, `{"error":"storing upload failed"}`, http.StatusInternalServerError)
			return
		}
		destPath := filepath.Join(destDir, id+filepath.Ext(header.Filename))
		dest, err := os.Create(destPath)
		if err != nil {
			http.Error(w, `{"error":"storing upload failed"}`, http.StatusInternalServerError)
			return
		}
		if _, err := io.Copy(dest, file); err != nil {
			dest.Close()
			os.Remove(destPath)
			http.Error(w, `{"error":"storing upload failed"}`, http.StatusInternalServerError)
			return
		}
		dest.Close()

		title := r.FormValue("title")
		if title == "" {
			title = header.Filename
		}

		doc, err := store.Create(r.Context(), Document{
			ID:             id,
			OrganizationID: orgID,
			UploadedBy:     tenant.UserID(r.Context()),
			Title:          title,
			Filename:       header.Filename,
			FilePath:       destPath,
			DocumentType:   r.FormValue("document_type"),
			Jurisdiction:   r.FormValue("jurisdiction"),
			CourtLevel:     r.FormValue("court_level"),
		})
		if err != nil {
			os.Remove(destPath)
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		processor.Enqueue(doc)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(doc)
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{Limit: 100}
		if v := r.URL.Query().Get("status"); v != "" {
			filter.Status = Status(v)
		}
		if v := r.URL.Query().Get("document_type"); v != "" {
			filter.DocumentType = v
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		docs, err := store.List(r.Context(), tenant.OrganizationID(r.Context()), filter)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if docs == nil {
			docs = []Document{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(docs)
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		doc, err := store.GetByID(r.Context(), tenant.OrganizationID(r.Context()), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if doc == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	}
}

func handleDelete(store *Store, processor *Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		orgID := tenant.OrganizationID(r.Context())

		doc, err := store.GetByID(r.Context(), orgID, id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if doc == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		removed, err := processor.Remove(r.Context(), orgID, id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if doc.FilePath != "" {
			os.Remove(doc.FilePath)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"chunks_removed": removed})
	}
}
