package handlers

import (
	"net/http"
	"postfile/storage/models"
)

func (h *HTTPHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	defer h.exclusive()()

	data, err := readPostBody(r)
	if err != nil {
		h.internalError(w, r, "Failed to decode post data while creating post", err)
		return
	}

	posts, err := h.Storage.Load(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to load posts while creating post", err)
		return
	}

	data[models.IdField] = posts.NextID()
	posts = append(posts, data)

	if err := h.Storage.Save(r.Context(), posts); err != nil {
		h.internalError(w, r, "Failed to save posts while creating post", err)
		return
	}
	h.notify(r, "create")

	writeJSON(w, r, http.StatusOK, data)
}
