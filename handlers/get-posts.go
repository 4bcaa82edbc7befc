package handlers

import (
	"net/http"
)

func (h *HTTPHandler) HandleGetPosts(w http.ResponseWriter, r *http.Request) {
	defer h.exclusive()()

	posts, err := h.Storage.Load(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to load posts", err)
		return
	}
	writeJSON(w, r, http.StatusOK, posts)
}
