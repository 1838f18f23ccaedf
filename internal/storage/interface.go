package storage

import (
	"context"
	"time"

	"github.com/UkralStul/blog-engagement-service/internal/domain"
)

// PaginationArgs - аргументы для пагинации.
type PaginationArgs struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize приводит лимит и смещение к допустимым границам.
func (p PaginationArgs) Normalize() PaginationArgs {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PostFilter - фильтры выборки постов. Nil-поля не применяются.
type PostFilter struct {
	Status     *domain.PostStatus
	CategoryID *string
	AuthorID   *string
	Tags       []string // пересечение по меткам: достаточно одной общей
	Search     string   // подстрока по title/content/summary без учета регистра
}

// PostSortField - поле сортировки. Допустимые значения перечислены ниже;
// все остальное отклоняется до построения запроса.
type PostSortField string

const (
	SortCreatedAt   PostSortField = "created_at"
	SortPublishedAt PostSortField = "published_at"
	SortViewCount   PostSortField = "view_count"
	SortTitle       PostSortField = "title"
)

// PostSort - поле и направление сортировки списка постов.
type PostSort struct {
	Field PostSortField
	Desc  bool
}

// ValidSortField проверяет поле по белому списку.
func ValidSortField(f PostSortField) bool {
	switch f {
	case SortCreatedAt, SortPublishedAt, SortViewCount, SortTitle:
		return true
	}
	return false
}

// NewPost - входные данные создания поста.
type NewPost struct {
	Title      string
	Content    string
	Summary    string
	Slug       string // пустой - будет выведен из заголовка
	CategoryID *string
	Tags       []string
	AuthorID   string
}

// PostUpdate - частичное обновление поста. Nil-поля не трогаются.
type PostUpdate struct {
	Title       *string
	Content     *string
	Summary     *string
	CategoryID  *string
	Tags        []string // nil - метки не меняются
	Status      *domain.PostStatus
	ScheduledAt *time.Time
}

// Reader - контракт читающих операций. Все они свободны от побочных
// эффектов, мягко удаленные строки отфильтрованы всегда.
type Reader interface {
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error)
	ListPosts(ctx context.Context, filter PostFilter, sort PostSort, page PaginationArgs) ([]*domain.Post, int64, error)

	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	GetCommentTree(ctx context.Context, postID string) ([]*domain.CommentNode, error)
	GetCommentsByPostID(ctx context.Context, postID string, page PaginationArgs) ([]*domain.Comment, int64, error)
	GetCommentsByParentID(ctx context.Context, parentID string, page PaginationArgs) ([]*domain.Comment, error)

	// Метод для Dataloader'ов
	GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error)

	GetReactionSummary(ctx context.Context, subject domain.SubjectRef, viewerID *string) (*domain.ReactionSummary, error)
	GetReactionSummaries(ctx context.Context, subjects []domain.SubjectRef, viewerID *string) (map[domain.SubjectRef]*domain.ReactionSummary, error)

	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

// Writer - контракт пишущих операций. Атомарность переключения реакции и
// дедупликации просмотров обеспечивается хранилищем (транзакции и
// уникальные ограничения), не блокировками в процессе.
type Writer interface {
	CreatePost(ctx context.Context, input NewPost) (*domain.Post, error)
	UpdatePost(ctx context.Context, id, actorID string, upd PostUpdate) (*domain.Post, error)
	DeletePost(ctx context.Context, id, actorID string) error
	ToggleComments(ctx context.Context, postID, actorID string, enabled bool) (*domain.Post, error)
	PublishDue(ctx context.Context, now time.Time) (int, error)

	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	UpdateComment(ctx context.Context, id, actorID, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id, actorID string) error

	ToggleReaction(ctx context.Context, subject domain.SubjectRef, userID, kind string) (*domain.ToggleResult, error)
	RecordView(ctx context.Context, postID string, userID *string, fingerprint string) (bool, error)

	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
}

// Storage определяет контракт для хранилищ.
type Storage interface {
	Reader
	Writer
}
