package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/events"
	"github.com/UkralStul/blog-engagement-service/internal/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler держит зависимости REST-слоя. Сам слой тонкий: разбор входа,
// вызов хранилища, перевод ошибок в статусы.
type Handler struct {
	Store    storage.Storage
	Observer *events.Observer
	Logger   *zap.SugaredLogger
}

// Routes собирает маршруты API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.listPosts)
		r.Post("/", h.createPost)
		r.Post("/publish-due", h.publishDue)
		r.Get("/slug/{slug}", h.getPostBySlug)
		r.Route("/{postID}", func(r chi.Router) {
			r.Get("/", h.getPost)
			r.Put("/", h.updatePost)
			r.Delete("/", h.deletePost)
			r.Post("/comments-enabled", h.toggleComments)
			r.Get("/comments", h.listRootComments)
			r.Get("/comments/tree", h.getCommentTree)
			r.Post("/comments", h.createComment)
			r.Get("/reactions", h.getPostReactions)
			r.Post("/reactions", h.togglePostReaction)
			r.Get("/events", h.streamEvents)
		})
	})

	r.Route("/comments/{commentID}", func(r chi.Router) {
		r.Put("/", h.updateComment)
		r.Delete("/", h.deleteComment)
		r.Get("/replies", h.listReplies)
		r.Get("/reactions", h.getCommentReactions)
		r.Post("/reactions", h.toggleCommentReaction)
	})

	r.Get("/reactions/catalog", h.getCatalog)
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)

	return r
}

// ViewerFromRequest извлекает идентификатор зрителя. Аутентификация
// выполняется выше по цепочке (шлюзом), сюда приходит готовый id.
func ViewerFromRequest(r *http.Request) *string {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		return nil
	}
	return &id
}

// requireUser пишет 401, если зритель не представился.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	if id := ViewerFromRequest(r); id != nil {
		return *id, true
	}
	h.writeError(w, http.StatusUnauthorized, "authentication required")
	return "", false
}

// fingerprint сворачивает адрес клиента и сессию в ключ дедупликации
// просмотров для неаутентифицированных зрителей.
func fingerprint(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	session := r.Header.Get("X-Session-ID")
	if session == "" {
		if c, err := r.Cookie("session_id"); err == nil {
			session = c.Value
		}
	}
	return domain.ClientFingerprint(ip, session)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Errorw("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// translateError переводит ошибки ядра в HTTP-статусы. Внутренние ошибки
// логируются и наружу уходят без деталей.
func (h *Handler) translateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.Logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ValidationError("malformed request body: %v", err)
	}
	return nil
}

// pageArgs разбирает пагинацию: либо page/size, либо skip/limit.
func pageArgs(r *http.Request) (storage.PaginationArgs, int) {
	q := r.URL.Query()

	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		if l, err := strconv.Atoi(q.Get("limit")); err == nil {
			size = l
		}
	}
	args := storage.PaginationArgs{Limit: size}

	if pageNum, err := strconv.Atoi(q.Get("page")); err == nil && pageNum >= 1 {
		args = args.Normalize()
		args.Offset = (pageNum - 1) * args.Limit
		return args, pageNum
	}
	if skip, err := strconv.Atoi(q.Get("skip")); err == nil && skip >= 0 {
		args.Offset = skip
	}
	args = args.Normalize()
	return args, args.Offset/args.Limit + 1
}

func pageArgsOnly(r *http.Request) storage.PaginationArgs {
	args, _ := pageArgs(r)
	return args
}

// listMeta - обертка страничной выдачи: data + total + page + pages + size.
type listMeta struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Pages int         `json:"pages"`
	Size  int         `json:"size"`
}

func newListMeta(data interface{}, total int64, page int, size int) listMeta {
	pages := 1
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(size)))
	}
	return listMeta{Data: data, Total: total, Page: page, Pages: pages, Size: size}
}
