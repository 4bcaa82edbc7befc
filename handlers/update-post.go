package handlers

import (
	"log"
	"net/http"
	"path"
	"postfile/storage/models"
)

func (h *HTTPHandler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	defer h.exclusive()()

	rawId := path.Base(r.URL.Path)
	postId, validId := models.ParseID(rawId)

	data, err := readPostBody(r)
	if err != nil {
		h.internalError(w, r, "Failed to decode post data while updating post", err)
		return
	}

	posts, err := h.Storage.Load(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to load posts while updating post", err)
		return
	}

	idx := -1
	if validId {
		idx = posts.IndexOf(postId)
	}
	if idx == -1 {
		log.Printf("[%s] Post %q not found while updating post", RequestIdFrom(r.Context()), rawId)
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{NOT_FOUND_ERROR_MESSAGE})
		return
	}

	updated := posts[idx].Merge(data)
	posts[idx] = updated

	if err := h.Storage.Save(r.Context(), posts); err != nil {
		h.internalError(w, r, "Failed to save posts while updating post", err)
		return
	}
	h.notify(r, "update")

	writeJSON(w, r, http.StatusOK, updated)
}
