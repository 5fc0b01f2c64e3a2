package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"itemservice/pkg/item"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BindError collects every field that failed to bind.
type BindError []FieldError

func (e BindError) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid item: " + strings.Join(parts, "; ")
}

// Has reports whether field failed.
func (e BindError) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// itemInput is the request shape shared by the form and JSON binders. Nil
// pointers mark missing fields.
type itemInput struct {
	ItemName *string `json:"itemName"`
	Price    *int    `json:"price"`
	Quantity *int    `json:"quantity"`
}

func (in itemInput) toItem(errs BindError) (item.Item, error) {
	var it item.Item
	if in.ItemName == nil || strings.TrimSpace(*in.ItemName) == "" {
		errs = append(errs, FieldError{Field: "itemName", Message: "is required"})
	} else {
		it.ItemName = strings.TrimSpace(*in.ItemName)
	}
	if in.Price == nil && !errs.Has("price") {
		errs = append(errs, FieldError{Field: "price", Message: "is required"})
	} else if in.Price != nil {
		it.Price = *in.Price
	}
	if in.Quantity == nil && !errs.Has("quantity") {
		errs = append(errs, FieldError{Field: "quantity", Message: "is required"})
	} else if in.Quantity != nil {
		it.Quantity = *in.Quantity
	}
	if len(errs) > 0 {
		return item.Item{}, errs
	}
	return it, nil
}

// bindForm maps the itemName, price and quantity form fields onto an Item.
func bindForm(r *http.Request) (item.Item, error) {
	if err := r.ParseForm(); err != nil {
		return item.Item{}, BindError{{Field: "form", Message: err.Error()}}
	}
	var (
		in   itemInput
		errs BindError
	)
	if r.PostForm.Has("itemName") {
		name := r.PostForm.Get("itemName")
		in.ItemName = &name
	}
	for _, f := range []struct {
		name string
		dst  **int
	}{
		{"price", &in.Price},
		{"quantity", &in.Quantity},
	} {
		raw := strings.TrimSpace(r.PostForm.Get(f.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, FieldError{Field: f.name, Message: fmt.Sprintf("%q is not an integer", raw)})
			continue
		}
		*f.dst = &n
	}
	return in.toItem(errs)
}

// bindJSON decodes an item body; unknown fields are rejected.
func bindJSON(r *http.Request) (item.Item, error) {
	var in itemInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return item.Item{}, BindError{{Field: typeErr.Field, Message: "must be " + typeErr.Type.String()}}
		}
		return item.Item{}, BindError{{Field: "body", Message: err.Error()}}
	}
	return in.toItem(nil)
}
