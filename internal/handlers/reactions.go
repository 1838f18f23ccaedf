package handlers

import (
	"net/http"

	"github.com/UkralStul/blog-engagement-service/internal/dataloader"
	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/events"
	"github.com/go-chi/chi/v5"
)

type toggleReactionRequest struct {
	Kind string `json:"kind"`
}

func (h *Handler) togglePostReaction(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	h.toggleReaction(w, r, domain.SubjectRef{Kind: domain.SubjectPost, ID: postID}, postID)
}

func (h *Handler) toggleCommentReaction(w http.ResponseWriter, r *http.Request) {
	// Пост нужен для рассылки события, заодно проверяется существование цели
	comment, err := h.Store.GetCommentByID(r.Context(), chi.URLParam(r, "commentID"))
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.toggleReaction(w, r, domain.SubjectRef{Kind: domain.SubjectComment, ID: comment.ID}, comment.PostID)
}

// toggleReaction - общая ветка для постов и комментариев. Вид реакции
// проверяется по каталогу до обращения к хранилищу.
func (h *Handler) toggleReaction(w http.ResponseWriter, r *http.Request, subject domain.SubjectRef, postID string) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req toggleReactionRequest
	if err := decodeBody(r, &req); err != nil {
		h.translateError(w, r, err)
		return
	}
	if !domain.IsValidReactionKind(req.Kind) {
		h.writeError(w, http.StatusBadRequest, "unknown reaction kind")
		return
	}

	result, err := h.Store.ToggleReaction(r.Context(), subject, userID, req.Kind)
	if err != nil {
		h.translateError(w, r, err)
		return
	}

	h.Observer.Notify(events.Event{
		Type:   events.EventReactionToggled,
		PostID: postID,
		Payload: map[string]interface{}{
			"subject": subject,
			"action":  result.Action,
			"summary": result.Summary,
		},
	})
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getPostReactions(w http.ResponseWriter, r *http.Request) {
	h.getReactions(w, r, domain.SubjectRef{Kind: domain.SubjectPost, ID: chi.URLParam(r, "postID")})
}

func (h *Handler) getCommentReactions(w http.ResponseWriter, r *http.Request) {
	h.getReactions(w, r, domain.SubjectRef{Kind: domain.SubjectComment, ID: chi.URLParam(r, "commentID")})
}

func (h *Handler) getReactions(w http.ResponseWriter, r *http.Request, subject domain.SubjectRef) {
	var (
		summary *domain.ReactionSummary
		err     error
	)
	if loaders := dataloader.For(r.Context()); loaders != nil {
		// Цель может не существовать; батч-лоадер этого не проверяет
		switch subject.Kind {
		case domain.SubjectPost:
			_, err = h.Store.GetPostByID(r.Context(), subject.ID)
		case domain.SubjectComment:
			_, err = h.Store.GetCommentByID(r.Context(), subject.ID)
		}
		if err == nil {
			summary, err = loaders.Summary(r.Context(), subject)
		}
	} else {
		summary, err = h.Store.GetReactionSummary(r.Context(), subject, ViewerFromRequest(r))
	}
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) getCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"kinds": domain.ReactionCatalog()})
}
