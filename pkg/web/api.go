package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"itemservice/pkg/otel"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// apiFail writes err as JSON, with field details for binding failures.
func (s *Server) apiFail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		s.log.Error(r.Context(), op, "error", err)
		writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
		return
	}
	body := map[string]interface{}{"error": err.Error()}
	var be BindError
	if errors.As(err, &be) {
		body["fields"] = be
	}
	writeJSON(w, code, body)
}

// listItemsHandler lists items.
// @Summary List items
// @Produce json
// @Success 200 {array} item.Item
// @Router /api/items [get]
func (s *Server) listItemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listItemsHandler")
	defer span.End()

	items, err := s.repo.FindAll(ctx)
	if err != nil {
		s.apiFail(w, r, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// createItemHandler creates a new item.
// @Summary Create item
// @Accept json
// @Produce json
// @Param item body item.Item true "Item"
// @Success 201 {object} item.Item
// @Failure 400
// @Router /api/items [post]
func (s *Server) createItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createItemHandler")
	defer span.End()

	it, err := bindJSON(r)
	if err != nil {
		s.apiFail(w, r, "bind item", err)
		return
	}
	saved, err := s.repo.Save(ctx, it)
	if err != nil {
		s.apiFail(w, r, "save item", err)
		return
	}
	w.Header().Set("Location", "/api/items/"+strconv.FormatInt(saved.ID, 10))
	writeJSON(w, http.StatusCreated, saved)
}

// getItemHandler retrieves an item by ID.
// @Summary Get item
// @Produce json
// @Param itemId path int true "Item ID"
// @Success 200 {object} item.Item
// @Failure 404
// @Router /api/items/{itemId} [get]
func (s *Server) getItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getItemHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.apiFail(w, r, "get item", err)
		return
	}
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.apiFail(w, r, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// updateItemHandler replaces an existing item's fields.
// @Summary Update item
// @Accept json
// @Produce json
// @Param itemId path int true "Item ID"
// @Param item body item.Item true "Item"
// @Success 200 {object} item.Item
// @Failure 404
// @Router /api/items/{itemId} [put]
func (s *Server) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateItemHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.apiFail(w, r, "update item", err)
		return
	}
	it, err := bindJSON(r)
	if err != nil {
		s.apiFail(w, r, "bind item", err)
		return
	}
	if err := s.repo.Update(ctx, id, it); err != nil {
		s.apiFail(w, r, "update item", err)
		return
	}
	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.apiFail(w, r, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
