package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/eduapp/internal/middleware"
	"github.com/hitoshi/eduapp/internal/model"
)

// DocumentServiceInterface はドキュメントハンドラーが必要とするサービスインターフェース。
type DocumentServiceInterface interface {
	Get(ctx context.Context, userID, collection, key string) (*model.Document, error)
	Set(ctx context.Context, userID, collection, key string, fields model.Fields) error
	Update(ctx context.Context, userID, collection, key string, fields model.Fields) error
}

// DocumentHandler はドキュメントの読み書きを行うHTTPハンドラー。
type DocumentHandler struct {
	service DocumentServiceInterface
}

// NewDocumentHandler はDocumentHandlerを生成する。
func NewDocumentHandler(service DocumentServiceInterface) *DocumentHandler {
	return &DocumentHandler{service: service}
}

type documentRequest struct {
	Fields model.Fields `json:"fields"`
}

type documentResponse struct {
	Collection string       `json:"collection"`
	Key        string       `json:"key"`
	Fields     model.Fields `json:"fields"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Get はドキュメントを取得する。
// GET /api/documents/{collection}/{key}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	collection, key := chi.URLParam(r, "collection"), chi.URLParam(r, "key")
	doc, err := h.service.Get(r.Context(), userID, collection, key)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		Collection: doc.Collection,
		Key:        doc.Key,
		Fields:     doc.Fields,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	})
}

// Set はドキュメントを作成または置き換える。
// PUT /api/documents/{collection}/{key}
func (h *DocumentHandler) Set(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.service.Set)
}

// Update は既存ドキュメントにフィールドをマージする。
// PATCH /api/documents/{collection}/{key}
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.service.Update)
}

type writeFunc func(ctx context.Context, userID, collection, key string, fields model.Fields) error

func (h *DocumentHandler) write(w http.ResponseWriter, r *http.Request, fn writeFunc) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req documentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Fields == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	collection, key := chi.URLParam(r, "collection"), chi.URLParam(r, "key")
	if err := fn(r.Context(), userID, collection, key, req.Fields); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}
