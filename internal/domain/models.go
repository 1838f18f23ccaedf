package domain

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus описывает этап жизненного цикла поста.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
	StatusArchived  PostStatus = "archived"
)

// SubjectKind - дискриминатор цели реакции: пост или комментарий.
type SubjectKind string

const (
	SubjectPost    SubjectKind = "post"
	SubjectComment SubjectKind = "comment"
)

// SubjectRef однозначно указывает на цель реакции.
type SubjectRef struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
}

// Post представляет пост в системе.
type Post struct {
	ID              string         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title           string         `json:"title" gorm:"type:varchar(255);not null"`
	Content         string         `json:"content" gorm:"type:text;not null"`
	Summary         string         `json:"summary,omitempty" gorm:"type:text"`
	Slug            string         `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex"`
	Status          PostStatus     `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	CategoryID      *string        `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	Tags            []*Tag         `json:"tags,omitempty" gorm:"many2many:post_tags;"`
	ViewCount       uint64         `json:"viewCount" gorm:"not null;default:0"`
	CommentsEnabled bool           `json:"commentsEnabled" gorm:"not null;default:true"`
	AuthorID        string         `json:"authorId" gorm:"type:varchar(255);not null;index"`
	CreatedAt       time.Time      `json:"createdAt" gorm:"not null;default:now();index"`
	UpdatedAt       time.Time      `json:"updatedAt" gorm:"not null;default:now()"`
	PublishedAt     *time.Time     `json:"publishedAt,omitempty"`
	ScheduledAt     *time.Time     `json:"scheduledAt,omitempty"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// Comment представляет комментарий к посту.
// Дерево строится через ParentID: корневые комментарии родителя не имеют.
type Comment struct {
	ID        string         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PostID    string         `json:"postId" gorm:"type:uuid;not null;index"`
	ParentID  *string        `json:"parentId,omitempty" gorm:"type:uuid;index"`
	AuthorID  string         `json:"authorId" gorm:"type:varchar(255);not null"`
	Content   string         `json:"content" gorm:"type:varchar(2000);not null"`
	IsEdited  bool           `json:"isEdited" gorm:"not null;default:false"`
	EditedAt  *time.Time     `json:"editedAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt" gorm:"not null;default:now();index"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// CommentNode - узел дерева комментариев с вложенными ответами.
type CommentNode struct {
	*Comment
	Replies []*CommentNode `json:"replies"`
}

// Reaction - реакция пользователя на пост или комментарий.
// На пару (пользователь, цель) допускается не более одной строки,
// поэтому снятие реакции - физическое удаление, без мягкого.
type Reaction struct {
	ID          string      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SubjectKind SubjectKind `json:"subjectKind" gorm:"type:varchar(10);not null;uniqueIndex:idx_reactions_subject_user"`
	SubjectID   string      `json:"subjectId" gorm:"type:uuid;not null;uniqueIndex:idx_reactions_subject_user"`
	UserID      string      `json:"userId" gorm:"type:varchar(255);not null;uniqueIndex:idx_reactions_subject_user"`
	Kind        string      `json:"kind" gorm:"type:varchar(50);not null"`
	CreatedAt   time.Time   `json:"createdAt" gorm:"not null;default:now()"`
	UpdatedAt   time.Time   `json:"updatedAt" gorm:"not null;default:now()"`
}

// ViewEvent - запись о просмотре поста. Дедупликация держится на
// уникальности (пост, ключ источника, часовой интервал): повторная вставка
// в том же интервале не проходит, и счетчик не растет.
type ViewEvent struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PostID      string    `json:"postId" gorm:"type:uuid;not null;uniqueIndex:idx_views_dedup"`
	UserID      *string   `json:"userId,omitempty" gorm:"type:varchar(255)"`
	Fingerprint string    `json:"-" gorm:"type:varchar(64)"`
	DedupKey    string    `json:"-" gorm:"type:varchar(255);not null;uniqueIndex:idx_views_dedup"`
	BucketStart time.Time `json:"-" gorm:"not null;uniqueIndex:idx_views_dedup"`
	ViewedAt    time.Time `json:"viewedAt" gorm:"not null;default:now()"`
}

// Category - рубрика поста.
type Category struct {
	ID   string `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name string `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Slug string `json:"slug" gorm:"type:varchar(100);not null;uniqueIndex"`
}

// Tag - метка поста, связь многие-ко-многим.
type Tag struct {
	ID   string `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name string `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
}

// ToggleAction - исход переключения реакции.
type ToggleAction string

const (
	ToggleAdded   ToggleAction = "added"
	ToggleChanged ToggleAction = "changed"
	ToggleRemoved ToggleAction = "removed"
)

// ToggleResult возвращается из ToggleReaction вместе со свежей сводкой.
type ToggleResult struct {
	Action  ToggleAction     `json:"action"`
	Summary *ReactionSummary `json:"summary"`
}

// KindCount - количество реакций одного вида.
type KindCount struct {
	Kind  string `json:"kind"`
	Emoji string `json:"emoji"`
	Count int64  `json:"count"`
}

// ReactionSummary - сводка реакций по цели. Counts всегда содержит по записи
// на каждый вид из каталога, включая нулевые, в порядке каталога.
type ReactionSummary struct {
	Subject    SubjectRef  `json:"subject"`
	Total      int64       `json:"total"`
	Counts     []KindCount `json:"counts"`
	ViewerKind *string     `json:"viewerKind,omitempty"`
}
