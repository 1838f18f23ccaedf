package handlers

import "net/http"

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Store.ListCategories(r.Context())
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.translateError(w, r, err)
		return
	}

	cat, err := h.Store.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, cat)
}
