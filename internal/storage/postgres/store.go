package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
// Мягкое удаление постов и комментариев фильтруется самим gorm
// (gorm.DeletedAt), поэтому каждый читающий запрос исключает удаленные
// строки без повторения условия вручную.
type Store struct {
	db *gorm.DB
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Переводим ошибки БД в ошибки gorm (в т.ч. нарушение уникальности)
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(
		&domain.Post{},
		&domain.Comment{},
		&domain.Reaction{},
		&domain.ViewEvent{},
		&domain.Category{},
		&domain.Tag{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, input storage.NewPost) (*domain.Post, error) {
	if err := domain.ValidatePost(input.Title, input.Content); err != nil {
		return nil, err
	}

	slug := input.Slug
	if slug == "" {
		slug = domain.Slugify(input.Title)
	}
	if slug == "" {
		return nil, domain.ValidationError("post slug cannot be empty")
	}

	post := &domain.Post{
		Title:           strings.TrimSpace(input.Title),
		Content:         input.Content,
		Summary:         input.Summary,
		Slug:            slug,
		Status:          domain.StatusDraft,
		CategoryID:      input.CategoryID,
		CommentsEnabled: true,
		AuthorID:        input.AuthorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.CategoryID != nil {
			var n int64
			if err := tx.Model(&domain.Category{}).Where("id = ?", *input.CategoryID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return domain.NotFoundError("category")
			}
		}

		tags, err := resolveTags(tx, input.Tags)
		if err != nil {
			return err
		}
		post.Tags = tags

		if err := tx.Create(post).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ConflictError("post slug %q already exists", slug)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// resolveTags находит или создает метки по именам.
func resolveTags(tx *gorm.DB, names []string) ([]*domain.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]*domain.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tag := &domain.Tag{Name: name}
		if err := tx.Where("name = ?", name).FirstOrCreate(tag).Error; err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Preload("Tags").First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("post")
		}
		return nil, err
	}
	return &post, nil
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Preload("Tags").First(&post, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("post")
		}
		return nil, err
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, filter storage.PostFilter, sortBy storage.PostSort, page storage.PaginationArgs) ([]*domain.Post, int64, error) {
	if sortBy.Field == "" {
		sortBy.Field = storage.SortCreatedAt
	}
	if !storage.ValidSortField(sortBy.Field) {
		return nil, 0, domain.ValidationError("unknown sort field %q", sortBy.Field)
	}
	page = page.Normalize()

	q := s.db.WithContext(ctx).Model(&domain.Post{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}
	if len(filter.Tags) > 0 {
		names := make([]string, 0, len(filter.Tags))
		for _, t := range filter.Tags {
			names = append(names, strings.ToLower(strings.TrimSpace(t)))
		}
		sub := s.db.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.name IN ?", names)
		q = q.Where("posts.id IN (?)", sub)
	}
	if filter.Search != "" {
		needle := "%" + filter.Search + "%"
		q = q.Where("title ILIKE @q OR content ILIKE @q OR summary ILIKE @q",
			map[string]interface{}{"q": needle})
	}

	// Два запроса: общее количество и страница
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if sortBy.Desc {
		dir = "DESC"
	}
	order := fmt.Sprintf("%s %s", sortBy.Field, dir)
	if sortBy.Field == storage.SortPublishedAt {
		order += " NULLS LAST"
	}

	var posts []*domain.Post
	err := q.Order(order).Order("id ASC").
		Limit(page.Limit).Offset(page.Offset).
		Preload("Tags").
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *Store) UpdatePost(ctx context.Context, id, actorID string, upd storage.PostUpdate) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("post")
			}
			return err
		}
		if post.AuthorID != actorID {
			return domain.ErrPermissionDenied
		}

		title, content := post.Title, post.Content
		if upd.Title != nil {
			title = *upd.Title
		}
		if upd.Content != nil {
			content = *upd.Content
		}
		if err := domain.ValidatePost(title, content); err != nil {
			return err
		}
		if upd.CategoryID != nil {
			var n int64
			if err := tx.Model(&domain.Category{}).Where("id = ?", *upd.CategoryID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return domain.NotFoundError("category")
			}
			post.CategoryID = upd.CategoryID
		}
		if upd.Status != nil {
			if err := post.ApplyStatusChange(*upd.Status, upd.ScheduledAt, time.Now().UTC()); err != nil {
				return err
			}
		}
		post.Title = strings.TrimSpace(title)
		post.Content = content
		if upd.Summary != nil {
			post.Summary = *upd.Summary
		}
		if upd.Tags != nil {
			tags, err := resolveTags(tx, upd.Tags)
			if err != nil {
				return err
			}
			if err := tx.Model(&post).Association("Tags").Replace(tags); err != nil {
				return err
			}
			post.Tags = tags
		}
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id, actorID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post domain.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("post")
			}
			return err
		}
		if post.AuthorID != actorID {
			return domain.ErrPermissionDenied
		}
		return tx.Delete(&post).Error
	})
}

func (s *Store) ToggleComments(ctx context.Context, postID, actorID string, enabled bool) (*domain.Post, error) {
	var post domain.Post
	// Используем транзакцию для атомарности операции чтения-записи
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("post")
			}
			return err
		}
		if post.AuthorID != actorID {
			return domain.ErrPermissionDenied
		}
		post.CommentsEnabled = enabled
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) PublishDue(ctx context.Context, now time.Time) (int, error) {
	// Один идемпотентный UPDATE: published_at ставится только если пуст
	res := s.db.WithContext(ctx).Model(&domain.Post{}).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", domain.StatusScheduled, now).
		Updates(map[string]interface{}{
			"status":       domain.StatusPublished,
			"published_at": gorm.Expr("COALESCE(published_at, scheduled_at)"),
			"scheduled_at": nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	// Валидация до начала записи
	if err := domain.ValidateCommentContent(comment.Content); err != nil {
		return nil, err
	}

	// Проверяем пост, разрешение на комментирование и родителя в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post domain.Post
		if err := tx.Select("id", "comments_enabled").First(&post, "id = ?", comment.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("post")
			}
			return err
		}
		if !post.CommentsEnabled {
			return domain.ValidationError("comments are disabled for this post")
		}

		// Родитель должен существовать и принадлежать тому же посту
		if comment.ParentID != nil {
			var parent domain.Comment
			if err := tx.Select("id", "post_id").First(&parent, "id = ?", *comment.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.NotFoundError("parent comment")
				}
				return err
			}
			if parent.PostID != comment.PostID {
				return domain.ValidationError("parent comment belongs to another post")
			}
		}

		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError("comment")
		}
		return nil, err
	}
	return &comment, nil
}

func (s *Store) UpdateComment(ctx context.Context, id, actorID, content string) (*domain.Comment, error) {
	if err := domain.ValidateCommentContent(content); err != nil {
		return nil, err
	}

	var comment domain.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("comment")
			}
			return err
		}
		if comment.AuthorID != actorID {
			return domain.ErrPermissionDenied
		}
		now := time.Now().UTC()
		comment.Content = content
		comment.IsEdited = true
		comment.EditedAt = &now
		return tx.Save(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id, actorID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment domain.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("comment")
			}
			return err
		}
		var post domain.Post
		if err := tx.Select("id", "author_id").First(&post, "id = ?", comment.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError("post")
			}
			return err
		}
		// Удалять может автор комментария или владелец поста
		if comment.AuthorID != actorID && post.AuthorID != actorID {
			return domain.ErrPermissionDenied
		}

		// Мягкое удаление каскадом: уровень за уровнем собираем поддерево
		ids := []string{comment.ID}
		frontier := []string{comment.ID}
		for len(frontier) > 0 {
			var next []string
			if err := tx.Model(&domain.Comment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &next).Error; err != nil {
				return err
			}
			ids = append(ids, next...)
			frontier = next
		}
		return tx.Where("id IN ?", ids).Delete(&domain.Comment{}).Error
	})
}

func (s *Store) GetCommentTree(ctx context.Context, postID string) ([]*domain.CommentNode, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.NotFoundError("post")
	}

	// Один запрос на весь набор комментариев поста, сборка леса в памяти
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return domain.BuildCommentForest(comments), nil
}

// === Pagination Methods ===

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string, page storage.PaginationArgs) ([]*domain.Comment, int64, error) {
	page = page.Normalize()
	q := s.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("post_id = ? AND parent_id IS NULL", postID)

	// Два запроса, как в ListPosts: общее количество и страница
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*domain.Comment
	err := q.Order("created_at ASC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (s *Store) GetCommentsByParentID(ctx context.Context, parentID string, page storage.PaginationArgs) ([]*domain.Comment, error) {
	page = page.Normalize()
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&comments).Error
	return comments, err
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	var comments []*domain.Comment
	// Загружаем все дочерние комментарии для всех переданных parentID одним запросом
	err := s.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("parent_id, created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string][]*domain.Comment, len(parentIDs))
	for _, c := range comments {
		if c.ParentID != nil {
			result[*c.ParentID] = append(result[*c.ParentID], c)
		}
	}
	return result, nil
}

// === Reaction Methods ===

// checkSubject проверяет существование цели реакции (мягко удаленные
// отфильтрованы самим gorm).
func checkSubject(tx *gorm.DB, subject domain.SubjectRef) error {
	var n int64
	var err error
	switch subject.Kind {
	case domain.SubjectPost:
		err = tx.Model(&domain.Post{}).Where("id = ?", subject.ID).Count(&n).Error
	case domain.SubjectComment:
		err = tx.Model(&domain.Comment{}).Where("id = ?", subject.ID).Count(&n).Error
	default:
		return domain.ValidationError("unknown subject kind %q", subject.Kind)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError(string(subject.Kind))
	}
	return nil
}

func (s *Store) ToggleReaction(ctx context.Context, subject domain.SubjectRef, userID, kind string) (*domain.ToggleResult, error) {
	if !domain.IsValidReactionKind(kind) {
		return nil, domain.ValidationError("unknown reaction kind %q", kind)
	}

	var action domain.ToggleAction
	toggle := func(tx *gorm.DB) error {
		if err := checkSubject(tx, subject); err != nil {
			return err
		}

		// Читаем-решаем-пишем под блокировкой строки; уникальный индекс
		// (subject_kind, subject_id, user_id) - страховка от гонки вставок.
		var existing domain.Reaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subject_kind = ? AND subject_id = ? AND user_id = ?", subject.Kind, subject.ID, userID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			action = domain.ToggleAdded
			return tx.Create(&domain.Reaction{
				SubjectKind: subject.Kind,
				SubjectID:   subject.ID,
				UserID:      userID,
				Kind:        kind,
			}).Error
		case err != nil:
			return err
		case existing.Kind == kind:
			action = domain.ToggleRemoved
			return tx.Delete(&existing).Error
		default:
			action = domain.ToggleChanged
			existing.Kind = kind
			return tx.Save(&existing).Error
		}
	}

	err := s.db.WithContext(ctx).Transaction(toggle)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Конкурирующая вставка выиграла гонку - повторяем один раз,
		// теперь попадем в ветку update/delete
		err = s.db.WithContext(ctx).Transaction(toggle)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = domain.ConflictError("concurrent reaction toggle")
		}
	}
	if err != nil {
		return nil, err
	}

	summary, err := s.GetReactionSummary(ctx, subject, &userID)
	if err != nil {
		return nil, err
	}
	return &domain.ToggleResult{Action: action, Summary: summary}, nil
}

type kindRow struct {
	SubjectKind domain.SubjectKind
	SubjectID   string
	Kind        string
	Count       int64
}

func (s *Store) GetReactionSummary(ctx context.Context, subject domain.SubjectRef, viewerID *string) (*domain.ReactionSummary, error) {
	if err := checkSubject(s.db.WithContext(ctx), subject); err != nil {
		return nil, err
	}

	// Один сгруппированный запрос; нулевые виды добиваются из каталога
	var rows []kindRow
	err := s.db.WithContext(ctx).Model(&domain.Reaction{}).
		Select("kind, count(*) as count").
		Where("subject_kind = ? AND subject_id = ?", subject.Kind, subject.ID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := domain.EmptySummary(subject)
	for _, r := range rows {
		summary.ApplyCount(r.Kind, r.Count)
	}

	if viewerID != nil {
		var own domain.Reaction
		err := s.db.WithContext(ctx).
			Where("subject_kind = ? AND subject_id = ? AND user_id = ?", subject.Kind, subject.ID, *viewerID).
			First(&own).Error
		switch {
		case err == nil:
			summary.ViewerKind = &own.Kind
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return summary, nil
}

func (s *Store) GetReactionSummaries(ctx context.Context, subjects []domain.SubjectRef, viewerID *string) (map[domain.SubjectRef]*domain.ReactionSummary, error) {
	out := make(map[domain.SubjectRef]*domain.ReactionSummary, len(subjects))
	if len(subjects) == 0 {
		return out, nil
	}

	pairs := make([][]interface{}, 0, len(subjects))
	for _, subject := range subjects {
		out[subject] = domain.EmptySummary(subject)
		pairs = append(pairs, []interface{}{subject.Kind, subject.ID})
	}

	// Один запрос на все цели сразу - для Dataloader'а
	var rows []kindRow
	err := s.db.WithContext(ctx).Model(&domain.Reaction{}).
		Select("subject_kind, subject_id, kind, count(*) as count").
		Where("(subject_kind, subject_id) IN ?", pairs).
		Group("subject_kind, subject_id, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		ref := domain.SubjectRef{Kind: r.SubjectKind, ID: r.SubjectID}
		if summary, ok := out[ref]; ok {
			summary.ApplyCount(r.Kind, r.Count)
		}
	}

	if viewerID != nil {
		var own []domain.Reaction
		err := s.db.WithContext(ctx).
			Where("(subject_kind, subject_id) IN ? AND user_id = ?", pairs, *viewerID).
			Find(&own).Error
		if err != nil {
			return nil, err
		}
		for i := range own {
			ref := domain.SubjectRef{Kind: own[i].SubjectKind, ID: own[i].SubjectID}
			if summary, ok := out[ref]; ok {
				summary.ViewerKind = &own[i].Kind
			}
		}
	}
	return out, nil
}

// === View Methods ===

func (s *Store) RecordView(ctx context.Context, postID string, userID *string, fingerprint string) (bool, error) {
	now := time.Now().UTC()
	event := &domain.ViewEvent{
		PostID:      postID,
		UserID:      userID,
		Fingerprint: fingerprint,
		DedupKey:    domain.ViewDedupKey(userID, fingerprint),
		BucketStart: domain.ViewBucket(now),
		ViewedAt:    now,
	}

	counted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFoundError("post")
		}

		// Атомарная вставка: дубликат в окне упирается в уникальный индекс
		// и счетчик не инкрементируется. Откат транзакции гарантирует
		// все-или-ничего для пары вставка+инкремент.
		if err := tx.Create(event).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil // повторный просмотр, не ошибка
			}
			return err
		}
		counted = true
		return tx.Model(&domain.Post{}).
			Where("id = ?", postID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	})
	if err != nil {
		return false, err
	}
	return counted, nil
}

// === Category Methods ===

func (s *Store) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ValidationError("category name cannot be empty")
	}
	cat := &domain.Category{Name: name, Slug: domain.Slugify(name)}
	if err := s.db.WithContext(ctx).Create(cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ConflictError("category %q already exists", name)
		}
		return nil, err
	}
	return cat, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var cats []*domain.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}
