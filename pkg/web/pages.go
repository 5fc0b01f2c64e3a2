package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"itemservice/pkg/item"
	"itemservice/pkg/otel"
)

// formPage is the data behind the add and edit forms. Field values are kept
// as text so rejected input is shown back as typed.
type formPage struct {
	Title    string
	Action   string
	ItemName string
	Price    string
	Quantity string
	Errors   BindError
}

func (p formPage) with(it item.Item) formPage {
	p.ItemName = it.ItemName
	p.Price = strconv.Itoa(it.Price)
	p.Quantity = strconv.Itoa(it.Quantity)
	return p
}

type itemView struct {
	Item    item.Item
	Saved   bool
	EditURL string
}

func (s *Server) render(ctx context.Context, w http.ResponseWriter, code int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.fail(ctx, w, "render "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w)
}

func (s *Server) itemsPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "itemsPage")
	defer span.End()

	items, err := s.repo.FindAll(ctx)
	if err != nil {
		s.fail(ctx, w, "list items", err)
		return
	}
	s.render(ctx, w, http.StatusOK, "items.gohtml", items)
}

func (s *Server) itemPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "itemPage")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "item page", err)
		return
	}
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.fail(ctx, w, "find item", err)
		return
	}
	s.render(ctx, w, http.StatusOK, "item.gohtml", itemView{
		Item:    it,
		Saved:   r.URL.Query().Get("status") == "true",
		EditURL: s.itemURL(id) + "/edit",
	})
}

func (s *Server) addFormPage(w http.ResponseWriter, r *http.Request) {
	s.render(r.Context(), w, http.StatusOK, "form.gohtml", formPage{Title: "Add item", Action: "/basic/items/add"})
}

// addItem saves the posted item and redirects to its page so a reload does
// not post twice.
func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addItem")
	defer span.End()

	it, err := bindForm(r)
	if err != nil {
		s.formError(ctx, w, formPage{Title: "Add item", Action: "/basic/items/add"}, r, err)
		return
	}
	saved, err := s.repo.Save(ctx, it)
	if err != nil {
		s.fail(ctx, w, "save item", err)
		return
	}
	s.log.Info(ctx, "item saved", "id", saved.ID, "itemName", saved.ItemName)
	http.Redirect(w, r, s.itemURL(saved.ID)+"?status=true", http.StatusSeeOther)
}

func (s *Server) editFormPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "editFormPage")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "edit form", err)
		return
	}
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.fail(ctx, w, "find item", err)
		return
	}
	s.render(ctx, w, http.StatusOK, "form.gohtml", formPage{Title: "Edit item", Action: s.itemURL(id) + "/edit"}.with(it))
}

func (s *Server) editItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "editItem")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "edit item", err)
		return
	}
	it, err := bindForm(r)
	if err != nil {
		s.formError(ctx, w, formPage{Title: "Edit item", Action: s.itemURL(id) + "/edit"}, r, err)
		return
	}
	if err := s.repo.Update(ctx, id, it); err != nil {
		s.fail(ctx, w, "update item", err)
		return
	}
	s.log.Info(ctx, "item updated", "id", id)
	http.Redirect(w, r, s.itemURL(id), http.StatusSeeOther)
}

// formError re-renders the form with the submitted values and field errors.
func (s *Server) formError(ctx context.Context, w http.ResponseWriter, page formPage, r *http.Request, err error) {
	var bindErr BindError
	if !errors.As(err, &bindErr) {
		s.fail(ctx, w, "bind form", err)
		return
	}
	page.ItemName = r.PostForm.Get("itemName")
	page.Price = r.PostForm.Get("price")
	page.Quantity = r.PostForm.Get("quantity")
	page.Errors = bindErr
	s.render(ctx, w, http.StatusBadRequest, "form.gohtml", page)
}
