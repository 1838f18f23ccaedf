package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/blog-engagement-service/internal/dataloader"
	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/storage"
	"github.com/go-chi/chi/v5"
)

// postResponse - пост, обогащенный сводкой реакций.
type postResponse struct {
	*domain.Post
	Reactions *domain.ReactionSummary `json:"reactions,omitempty"`
}

type createPostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Summary    string   `json:"summary"`
	Slug       string   `json:"slug"`
	CategoryID *string  `json:"categoryId"`
	Tags       []string `json:"tags"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if err := decodeBody(r, &req); err != nil {
		h.translateError(w, r, err)
		return
	}

	post, err := h.Store.CreatePost(r.Context(), storage.NewPost{
		Title:      req.Title,
		Content:    req.Content,
		Summary:    req.Summary,
		Slug:       req.Slug,
		CategoryID: req.CategoryID,
		Tags:       req.Tags,
		AuthorID:   userID,
	})
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.Logger.Infow("post created", "postID", post.ID, "authorID", userID)
	h.writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter storage.PostFilter
	if v := q.Get("status"); v != "" {
		status := domain.PostStatus(v)
		if !domain.IsValidStatus(status) {
			h.writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		filter.Status = &status
	}
	if v := q.Get("category"); v != "" {
		filter.CategoryID = &v
	}
	if v := q.Get("author"); v != "" {
		filter.AuthorID = &v
	}
	filter.Tags = q["tag"]
	filter.Search = q.Get("q")

	sortBy := storage.PostSort{Field: storage.PostSortField(q.Get("sort"))}
	if sortBy.Field == "" {
		sortBy.Field = storage.SortCreatedAt
		sortBy.Desc = true
	}
	if q.Get("order") == "desc" {
		sortBy.Desc = true
	}
	if q.Get("order") == "asc" {
		sortBy.Desc = false
	}

	page, pageNum := pageArgs(r)
	posts, total, err := h.Store.ListPosts(r.Context(), filter, sortBy, page)
	if err != nil {
		h.translateError(w, r, err)
		return
	}

	items, err := h.withSummaries(r.Context(), posts)
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newListMeta(items, total, pageNum, page.Limit))
}

// withSummaries обогащает страницу постов сводками реакций. Через
// Dataloader это один запрос на всю страницу, не запрос на пост.
func (h *Handler) withSummaries(ctx context.Context, posts []*domain.Post) ([]postResponse, error) {
	subjects := make([]domain.SubjectRef, len(posts))
	for i, p := range posts {
		subjects[i] = domain.SubjectRef{Kind: domain.SubjectPost, ID: p.ID}
	}

	items := make([]postResponse, len(posts))
	loaders := dataloader.For(ctx)
	if loaders == nil {
		for i, p := range posts {
			items[i] = postResponse{Post: p}
		}
		return items, nil
	}

	summaries, err := loaders.Summaries(ctx, subjects)
	if err != nil {
		return nil, err
	}
	for i, p := range posts {
		items[i] = postResponse{Post: p, Reactions: summaries[i]}
	}
	return items, nil
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	viewer := ViewerFromRequest(r)

	// Просмотр учитывается до чтения, чтобы счетчик в ответе был свежим.
	// Повторный просмотр в окне дедупликации - тихий no-op.
	counted, err := h.Store.RecordView(r.Context(), postID, viewer, fingerprint(r))
	if err != nil {
		h.translateError(w, r, err)
		return
	}

	post, err := h.Store.GetPostByID(r.Context(), postID)
	if err != nil {
		h.translateError(w, r, err)
		return
	}

	resp := struct {
		postResponse
		ViewCounted bool `json:"viewCounted"`
	}{postResponse{Post: post}, counted}

	if loaders := dataloader.For(r.Context()); loaders != nil {
		summary, err := loaders.Summary(r.Context(), domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID})
		if err != nil {
			h.translateError(w, r, err)
			return
		}
		resp.Reactions = summary
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getPostBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.Store.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

type updatePostRequest struct {
	Title       *string            `json:"title"`
	Content     *string            `json:"content"`
	Summary     *string            `json:"summary"`
	CategoryID  *string            `json:"categoryId"`
	Tags        []string           `json:"tags"`
	Status      *domain.PostStatus `json:"status"`
	ScheduledAt *time.Time         `json:"scheduledAt"`
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := decodeBody(r, &req); err != nil {
		h.translateError(w, r, err)
		return
	}

	post, err := h.Store.UpdatePost(r.Context(), chi.URLParam(r, "postID"), userID, storage.PostUpdate{
		Title:       req.Title,
		Content:     req.Content,
		Summary:     req.Summary,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
		Status:      req.Status,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeletePost(r.Context(), chi.URLParam(r, "postID"), userID); err != nil {
		h.translateError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleComments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.translateError(w, r, err)
		return
	}

	post, err := h.Store.ToggleComments(r.Context(), chi.URLParam(r, "postID"), userID, req.Enabled)
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

// publishDue переводит дозревшие отложенные посты в published. Дергается
// внешним таймером; сам вызов идемпотентен.
func (h *Handler) publishDue(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.PublishDue(r.Context(), time.Now().UTC())
	if err != nil {
		h.translateError(w, r, err)
		return
	}
	if n > 0 {
		h.Logger.Infow("scheduled posts published", "count", n)
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"published": n})
}
