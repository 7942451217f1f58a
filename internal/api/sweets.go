package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mithaiwala/sweetshop/internal/model"
	"github.com/mithaiwala/sweetshop/internal/store"
	"github.com/mithaiwala/sweetshop/internal/upload"
)

// SweetsHandler handles catalog and inventory endpoints.
type SweetsHandler struct {
	DB *sql.DB
}

type createSweetRequest struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
	ImageURL *string  `json:"imageUrl"`
}

// optionalNullString distinguishes an absent JSON field from an explicit null.
type optionalNullString struct {
	set   bool
	value *string
}

func (o *optionalNullString) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		o.value = nil
		return nil
	}
	return json.Unmarshal(b, &o.value)
}

type updateSweetRequest struct {
	Name     *string            `json:"name"`
	Category *string            `json:"category"`
	Price    *float64           `json:"price"`
	Quantity *int               `json:"quantity"`
	ImageURL optionalNullString `json:"imageUrl"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// validImageURL accepts an absolute http(s) URL or an upload store reference.
func validImageURL(s string) bool {
	if strings.HasPrefix(s, upload.URLPrefix) {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Create handles POST /api/sweets.
func (h *SweetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSweetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Category == "" {
		jsonError(w, http.StatusBadRequest, "name and category required")
		return
	}
	if req.Price == nil || *req.Price < 0 {
		jsonError(w, http.StatusBadRequest, "non-negative price required")
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "non-negative quantity required")
		return
	}
	if req.ImageURL != nil && !validImageURL(*req.ImageURL) {
		jsonError(w, http.StatusBadRequest, "imageUrl must be an absolute URL or an /uploads/ path")
		return
	}

	sweet, err := store.CreateSweet(r.Context(), h.DB, req.Name, req.Category, *req.Price, *req.Quantity, req.ImageURL)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create sweet")
		return
	}

	jsonResponse(w, http.StatusCreated, sweet)
}

// List handles GET /api/sweets.
func (h *SweetsHandler) List(w http.ResponseWriter, r *http.Request) {
	sweets, err := store.ListSweets(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list sweets")
		return
	}
	if sweets == nil {
		sweets = []model.Sweet{}
	}
	jsonResponse(w, http.StatusOK, sweets)
}

// Search handles GET /api/sweets/search.
func (h *SweetsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.SweetFilter{
		Name:     query.Get("name"),
		Category: query.Get("category"),
	}

	if raw := query.Get("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid minPrice")
			return
		}
		filter.MinPrice = &v
	}
	if raw := query.Get("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid maxPrice")
			return
		}
		filter.MaxPrice = &v
	}

	sweets, err := store.SearchSweets(r.Context(), h.DB, filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to search sweets")
		return
	}
	if sweets == nil {
		sweets = []model.Sweet{}
	}
	jsonResponse(w, http.StatusOK, sweets)
}

// Update handles PUT /api/sweets/{id}.
func (h *SweetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid sweet id")
		return
	}

	var req updateSweetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil && *req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	if req.Category != nil && *req.Category == "" {
		jsonError(w, http.StatusBadRequest, "category must not be empty")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		jsonError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}
	if req.ImageURL.set && req.ImageURL.value != nil && !validImageURL(*req.ImageURL.value) {
		jsonError(w, http.StatusBadRequest, "imageUrl must be an absolute URL or an /uploads/ path")
		return
	}

	update := store.SweetUpdate{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	if req.ImageURL.set {
		image := sql.NullString{}
		if req.ImageURL.value != nil {
			image = sql.NullString{String: *req.ImageURL.value, Valid: true}
		}
		update.ImageURL = &image
	}

	sweet, err := store.UpdateSweet(r.Context(), h.DB, id, update)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "sweet not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update sweet")
		return
	}

	jsonResponse(w, http.StatusOK, sweet)
}

// Delete handles DELETE /api/sweets/{id}.
func (h *SweetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid sweet id")
		return
	}

	err = store.DeleteSweet(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "sweet not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete sweet")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Purchase handles POST /api/sweets/{id}/purchase.
func (h *SweetsHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, amount, ok := h.idAndAmount(w, r)
	if !ok {
		return
	}

	sweet, err := store.PurchaseSweet(r.Context(), h.DB, id, amount)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "sweet not found")
		return
	}
	if errors.Is(err, store.ErrInsufficientStock) {
		jsonError(w, http.StatusBadRequest, "insufficient stock")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to purchase sweet")
		return
	}

	jsonResponse(w, http.StatusOK, sweet)
}

// Restock handles POST /api/sweets/{id}/restock.
func (h *SweetsHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, amount, ok := h.idAndAmount(w, r)
	if !ok {
		return
	}

	sweet, err := store.RestockSweet(r.Context(), h.DB, id, amount)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "sweet not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to restock sweet")
		return
	}

	jsonResponse(w, http.StatusOK, sweet)
}

// idAndAmount parses the path id and the optional quantity body, defaulting
// the amount to 1 when the body is empty or omits it. Writes the error
// response itself and returns ok=false on invalid input.
func (h *SweetsHandler) idAndAmount(w http.ResponseWriter, r *http.Request) (int64, int, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid sweet id")
		return 0, 0, false
	}

	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil && err != io.EOF {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return 0, 0, false
	}

	amount := 1
	if req.Quantity != nil {
		amount = *req.Quantity
	}
	if amount <= 0 {
		jsonError(w, http.StatusBadRequest, "quantity must be positive")
		return 0, 0, false
	}

	return id, amount, true
}
