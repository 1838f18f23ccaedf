package handlers

import (
	"net/http"

	"github.com/UkralStul/blog-engagement-service/internal/dataloader"
	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/events"
	"github.com/go-chi/chi/v5"
)

type createCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := decodeBody(r, &req); err != nil {
		h.translateError(w, r, err)
		return
	}

	comment, err := h.Store.CreateComment(r.Context(), &domain.Comment{
		PostID:   chi.URLParam(r, "postID"),
		ParentID: req.ParentID,
		AuthorID: userID,
		Content:  req.Content,
	})
	if err != nil {
		h.translateError(w, r, err)
		return
	}

	h.Observer.Notify(events.Event{
		Type:    events.EventCommentAdded,
		PostID:  comment.PostID,
		Payload: comment,
	})
	h.writeJSON(w, http.StatusCreated, comment)
}

func (h *Handler) getCommentTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.Store.GetCommentTree(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"comments": tree})
}

func (h *Handler) listRootComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if _, err := h.Store.GetPostByID(r.Context(), postID); err != nil {
		h.translateError(w, r, err)
		return
	}

	page, pageNum := pageArgs(r)
	comments, total, err := h.Store.GetCommentsByPostID(r.Context(), postID, page)
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newListMeta(comments, total, pageNum, page.Limit))
}

// listReplies отдает прямых потомков комментария. Идет через Dataloader:
// параллельные запросы одной страницы склеиваются в один запрос к БД.
func (h *Handler) listReplies(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "commentID")
	if _, err := h.Store.GetCommentByID(r.Context(), commentID); err != nil {
		h.translateError(w, r, err)
		return
	}

	var (
		replies []*domain.Comment
		err     error
	)
	if loaders := dataloader.For(r.Context()); loaders != nil {
		replies, err = loaders.Children(r.Context(), commentID)
	} else {
		replies, err = h.Store.GetCommentsByParentID(r.Context(), commentID, pageArgsOnly(r))
	}
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"replies": replies})
}

func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.translateError(w, r, err)
		return
	}

	comment, err := h.Store.UpdateComment(r.Context(), chi.URLParam(r, "commentID"), userID, req.Content)
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, comment)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	commentID := chi.URLParam(r, "commentID")
	comment, err := h.Store.GetCommentByID(r.Context(), commentID)
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	if err := h.Store.DeleteComment(r.Context(), commentID, userID); err != nil {
		h.translateError(w, r, err)
		return
	}

	h.Observer.Notify(events.Event{
		Type:    events.EventCommentDeleted,
		PostID:  comment.PostID,
		Payload: map[string]string{"commentId": commentID},
	})
	w.WriteHeader(http.StatusNoContent)
}
