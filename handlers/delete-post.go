package handlers

import (
	"net/http"
	"path"
	"postfile/storage/models"
)

// HandleDeletePost answers success whether or not a post was removed; the
// collection is written back either way.
func (h *HTTPHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	defer h.exclusive()()

	postId, validId := models.ParseID(path.Base(r.URL.Path))

	posts, err := h.Storage.Load(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to load posts while deleting post", err)
		return
	}

	if validId {
		posts = posts.Without(postId)
	}

	if err := h.Storage.Save(r.Context(), posts); err != nil {
		h.internalError(w, r, "Failed to save posts while deleting post", err)
		return
	}
	h.notify(r, "delete")

	writeJSON(w, r, http.StatusOK, SuccessResponse{true})
}
