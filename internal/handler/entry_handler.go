package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kyohei/playnote/internal/middleware"
	"github.com/kyohei/playnote/internal/model"
)

// EntryServiceInterface はエントリハンドラーが必要とするサービスインターフェース。
type EntryServiceInterface interface {
	List(ctx context.Context) ([]model.EntryWithAuthor, error)
	DisplayNames(ctx context.Context) (map[string]string, error)
	Create(ctx context.Context, authorID string, in model.EntryInput) (*model.Entry, error)
	Update(ctx context.Context, id int64, authorID string, in model.EntryInput) (*model.Entry, error)
	Delete(ctx context.Context, id int64, authorID string) error
}

// EntryHandler は分析エントリのHTTPハンドラー。
type EntryHandler struct {
	service EntryServiceInterface
}

// NewEntryHandler はEntryHandlerを生成する。
func NewEntryHandler(service EntryServiceInterface) *EntryHandler {
	return &EntryHandler{
		service: service,
	}
}

// entryInputRequest はエントリ作成・更新リクエストのボディ。
type entryInputRequest struct {
	SessionDate string `json:"session_date"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// entryResponse はエントリのAPIレスポンス。
type entryResponse struct {
	ID          int64  `json:"id"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name,omitempty"`
	CreatedAt   string `json:"created_at"`
	SessionDate string `json:"session_date"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

func toEntryResponse(e *model.Entry, authorName string) entryResponse {
	return entryResponse{
		ID:          e.ID,
		AuthorID:    e.AuthorID,
		AuthorName:  authorName,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		SessionDate: e.SessionDate,
		Title:       e.Title,
		Body:        e.Body,
	}
}

// List はエントリ一覧を作成日時の降順で返す。
// GET /api/entries
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toEntryResponse(&e.Entry, e.AuthorName)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Create は新しいエントリを作成する。
// POST /api/entries
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	var req entryInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, model.NewInvalidRequestError())
		return
	}

	created, err := h.service.Create(r.Context(), userID, model.EntryInput{
		SessionDate: req.SessionDate,
		Title:       req.Title,
		Body:        req.Body,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toEntryResponse(created, ""))
}

// Update は既存エントリの3フィールドを一括更新する。
// PUT /api/entries/{id}
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	entryID, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	var req entryInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAPIError(w, model.NewInvalidRequestError())
		return
	}

	updated, err := h.service.Update(r.Context(), entryID, userID, model.EntryInput{
		SessionDate: req.SessionDate,
		Title:       req.Title,
		Body:        req.Body,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toEntryResponse(updated, ""))
}

// Delete はエントリを削除する。
// DELETE /api/entries/{id}
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}

	entryID, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), entryID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Profiles は全ユーザーの表示名マップを返す。
// GET /api/profiles
func (h *EntryHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.DisplayNames(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(names)
}

// parseEntryID はURLパラメータからエントリIDを取得する。
// 不正なIDの場合は400を書き込みfalseを返す。
func parseEntryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteAPIError(w, model.NewInvalidRequestError())
		return 0, false
	}
	return id, true
}
