package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reactionKey struct {
	subjectKind domain.SubjectKind
	subjectID   string
	userID      string
}

type viewKey struct {
	postID   string
	dedupKey string
	bucket   time.Time
}

// Store реализует интерфейс Storage в памяти. Мьютекс играет роль
// транзакции: вся последовательность "прочитать-решить-записать"
// выполняется под одной блокировкой.
type Store struct {
	mu               sync.RWMutex
	posts            map[string]*domain.Post
	postOrder        []string            // порядок вставки
	slugs            map[string]string   // map[slug]postID
	comments         map[string]*domain.Comment
	commentsByPost   map[string][]string // map[postID][]commentID (только корневые)
	commentsByParent map[string][]string // map[parentID][]commentID
	commentsOrder    map[string][]string // map[postID][]commentID (все, в порядке вставки)
	reactions        map[reactionKey]*domain.Reaction
	views            map[viewKey]*domain.ViewEvent
	categories       map[string]*domain.Category // map[id]
	tags             map[string]*domain.Tag      // map[name]

	now func() time.Time // подменяется в тестах
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts:            make(map[string]*domain.Post),
		slugs:            make(map[string]string),
		comments:         make(map[string]*domain.Comment),
		commentsByPost:   make(map[string][]string),
		commentsByParent: make(map[string][]string),
		commentsOrder:    make(map[string][]string),
		reactions:        make(map[reactionKey]*domain.Reaction),
		views:            make(map[viewKey]*domain.ViewEvent),
		categories:       make(map[string]*domain.Category),
		tags:             make(map[string]*domain.Tag),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func deleted(at gorm.DeletedAt) bool { return at.Valid }

// livePost возвращает пост без учета мягко удаленных.
func (s *Store) livePost(id string) (*domain.Post, bool) {
	p, ok := s.posts[id]
	if !ok || deleted(p.DeletedAt) {
		return nil, false
	}
	return p, true
}

func (s *Store) liveComment(id string) (*domain.Comment, bool) {
	c, ok := s.comments[id]
	if !ok || deleted(c.DeletedAt) {
		return nil, false
	}
	return c, true
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, input storage.NewPost) (*domain.Post, error) {
	if err := domain.ValidatePost(input.Title, input.Content); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slug := input.Slug
	if slug == "" {
		slug = domain.Slugify(input.Title)
	}
	if slug == "" {
		return nil, domain.ValidationError("post slug cannot be empty")
	}
	if _, taken := s.slugs[slug]; taken {
		return nil, domain.ConflictError("post slug %q already exists", slug)
	}
	if input.CategoryID != nil {
		if _, ok := s.categories[*input.CategoryID]; !ok {
			return nil, domain.NotFoundError("category")
		}
	}

	now := s.now()
	post := &domain.Post{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(input.Title),
		Content:         input.Content,
		Summary:         input.Summary,
		Slug:            slug,
		Status:          domain.StatusDraft,
		CategoryID:      input.CategoryID,
		Tags:            s.resolveTags(input.Tags),
		CommentsEnabled: true,
		AuthorID:        input.AuthorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.posts[post.ID] = post
	s.postOrder = append(s.postOrder, post.ID)
	s.slugs[slug] = post.ID
	return post, nil
}

// resolveTags находит или создает метки по именам. Вызывается под мьютексом.
func (s *Store) resolveTags(names []string) []*domain.Tag {
	if len(names) == 0 {
		return nil
	}
	out := make([]*domain.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tag, ok := s.tags[name]
		if !ok {
			tag = &domain.Tag{ID: uuid.NewString(), Name: name}
			s.tags[name] = tag
		}
		out = append(out, tag)
	}
	return out
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.livePost(id)
	if !ok {
		return nil, domain.NotFoundError("post")
	}
	return post, nil
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slugs[slug]
	if !ok {
		return nil, domain.NotFoundError("post")
	}
	post, ok := s.livePost(id)
	if !ok {
		return nil, domain.NotFoundError("post")
	}
	return post, nil
}

func (s *Store) ListPosts(ctx context.Context, filter storage.PostFilter, sortBy storage.PostSort, page storage.PaginationArgs) ([]*domain.Post, int64, error) {
	if sortBy.Field == "" {
		sortBy.Field = storage.SortCreatedAt
	}
	if !storage.ValidSortField(sortBy.Field) {
		return nil, 0, domain.ValidationError("unknown sort field %q", sortBy.Field)
	}
	page = page.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*domain.Post, 0, len(s.posts))
	for _, id := range s.postOrder {
		p, ok := s.livePost(id)
		if !ok || !matchPost(p, filter) {
			continue
		}
		matched = append(matched, p)
	}

	sortPosts(matched, sortBy)
	total := int64(len(matched))

	start := page.Offset
	if start >= len(matched) {
		return []*domain.Post{}, total, nil
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchPost(p *domain.Post, f storage.PostFilter) bool {
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			want = strings.ToLower(want)
			for _, tag := range p.Tags {
				if tag.Name == want {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) &&
			!strings.Contains(strings.ToLower(p.Summary), needle) {
			return false
		}
	}
	return true
}

func sortPosts(posts []*domain.Post, by storage.PostSort) {
	less := func(a, b *domain.Post) bool {
		switch by.Field {
		case storage.SortPublishedAt:
			// Неопубликованные в конце при любом направлении
			switch {
			case a.PublishedAt == nil && b.PublishedAt == nil:
				return a.CreatedAt.Before(b.CreatedAt)
			case a.PublishedAt == nil:
				return false
			case b.PublishedAt == nil:
				return true
			default:
				if by.Desc {
					return a.PublishedAt.After(*b.PublishedAt)
				}
				return a.PublishedAt.Before(*b.PublishedAt)
			}
		case storage.SortViewCount:
			if by.Desc {
				return a.ViewCount > b.ViewCount
			}
			return a.ViewCount < b.ViewCount
		case storage.SortTitle:
			if by.Desc {
				return strings.ToLower(a.Title) > strings.ToLower(b.Title)
			}
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			if by.Desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return less(posts[i], posts[j]) })
}

func (s *Store) UpdatePost(ctx context.Context, id, actorID string, upd storage.PostUpdate) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.livePost(id)
	if !ok {
		return nil, domain.NotFoundError("post")
	}
	if post.AuthorID != actorID {
		return nil, domain.ErrPermissionDenied
	}

	title, content := post.Title, post.Content
	if upd.Title != nil {
		title = *upd.Title
	}
	if upd.Content != nil {
		content = *upd.Content
	}
	if err := domain.ValidatePost(title, content); err != nil {
		return nil, err
	}
	if upd.CategoryID != nil {
		if _, ok := s.categories[*upd.CategoryID]; !ok {
			return nil, domain.NotFoundError("category")
		}
	}
	if upd.Status != nil {
		if err := post.ApplyStatusChange(*upd.Status, upd.ScheduledAt, s.now()); err != nil {
			return nil, err
		}
	}

	post.Title = strings.TrimSpace(title)
	post.Content = content
	if upd.Summary != nil {
		post.Summary = *upd.Summary
	}
	if upd.CategoryID != nil {
		post.CategoryID = upd.CategoryID
	}
	if upd.Tags != nil {
		post.Tags = s.resolveTags(upd.Tags)
	}
	post.UpdatedAt = s.now()
	return post, nil
}

func (s *Store) DeletePost(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.livePost(id)
	if !ok {
		return domain.NotFoundError("post")
	}
	if post.AuthorID != actorID {
		return domain.ErrPermissionDenied
	}
	post.DeletedAt = gorm.DeletedAt{Time: s.now(), Valid: true}
	return nil
}

func (s *Store) ToggleComments(ctx context.Context, postID, actorID string, enabled bool) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.livePost(postID)
	if !ok {
		return nil, domain.NotFoundError("post")
	}
	if post.AuthorID != actorID {
		return nil, domain.ErrPermissionDenied
	}
	post.CommentsEnabled = enabled
	post.UpdatedAt = s.now()
	return post, nil
}

func (s *Store) PublishDue(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	published := 0
	for _, id := range s.postOrder {
		p, ok := s.livePost(id)
		if !ok || p.Status != domain.StatusScheduled {
			continue
		}
		if p.ScheduledAt == nil || p.ScheduledAt.After(now) {
			continue
		}
		if err := p.ApplyStatusChange(domain.StatusPublished, nil, now); err != nil {
			return published, err
		}
		p.UpdatedAt = now
		published++
	}
	return published, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if err := domain.ValidateCommentContent(comment.Content); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.livePost(comment.PostID)
	if !ok {
		return nil, domain.NotFoundError("post")
	}
	if !post.CommentsEnabled {
		return nil, domain.ValidationError("comments are disabled for this post")
	}

	// Родитель должен существовать и принадлежать тому же посту. Поскольку
	// родитель создан раньше потомка, циклы невозможны по построению.
	if comment.ParentID != nil {
		parent, ok := s.liveComment(*comment.ParentID)
		if !ok {
			return nil, domain.NotFoundError("parent comment")
		}
		if parent.PostID != comment.PostID {
			return nil, domain.ValidationError("parent comment belongs to another post")
		}
	}

	comment.ID = uuid.NewString()
	comment.CreatedAt = s.now()
	comment.UpdatedAt = comment.CreatedAt
	s.comments[comment.ID] = comment
	s.commentsOrder[comment.PostID] = append(s.commentsOrder[comment.PostID], comment.ID)

	// Обновление индексов для иерархии
	if comment.ParentID == nil {
		s.commentsByPost[comment.PostID] = append(s.commentsByPost[comment.PostID], comment.ID)
	} else {
		s.commentsByParent[*comment.ParentID] = append(s.commentsByParent[*comment.ParentID], comment.ID)
	}

	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.liveComment(id)
	if !ok {
		return nil, domain.NotFoundError("comment")
	}
	return comment, nil
}

func (s *Store) UpdateComment(ctx context.Context, id, actorID, content string) (*domain.Comment, error) {
	if err := domain.ValidateCommentContent(content); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.liveComment(id)
	if !ok {
		return nil, domain.NotFoundError("comment")
	}
	if comment.AuthorID != actorID {
		return nil, domain.ErrPermissionDenied
	}

	now := s.now()
	comment.Content = content
	comment.IsEdited = true
	comment.EditedAt = &now
	comment.UpdatedAt = now
	return comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.liveComment(id)
	if !ok {
		return domain.NotFoundError("comment")
	}
	post, ok := s.livePost(comment.PostID)
	if !ok {
		return domain.NotFoundError("post")
	}
	// Удалять может автор комментария или владелец поста
	if comment.AuthorID != actorID && post.AuthorID != actorID {
		return domain.ErrPermissionDenied
	}

	// Мягкое удаление каскадом на все поддерево ответов
	now := s.now()
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if c, ok := s.comments[cur]; ok && !deleted(c.DeletedAt) {
			c.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
		}
		queue = append(queue, s.commentsByParent[cur]...)
	}
	return nil
}

func (s *Store) GetCommentTree(ctx context.Context, postID string) ([]*domain.CommentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.livePost(postID); !ok {
		return nil, domain.NotFoundError("post")
	}

	all := make([]*domain.Comment, 0, len(s.commentsOrder[postID]))
	for _, id := range s.commentsOrder[postID] {
		if c, ok := s.liveComment(id); ok {
			all = append(all, c)
		}
	}
	return domain.BuildCommentForest(all), nil
}

// === Pagination Methods ===

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string, page storage.PaginationArgs) ([]*domain.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// total - число живых корневых комментариев, не размер страницы
	var total int64
	for _, id := range s.commentsByPost[postID] {
		if _, ok := s.liveComment(id); ok {
			total++
		}
	}
	return s.paginateComments(s.commentsByPost[postID], page), total, nil
}

func (s *Store) GetCommentsByParentID(ctx context.Context, parentID string, page storage.PaginationArgs) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paginateComments(s.commentsByParent[parentID], page), nil
}

// paginateComments - вспомогательная функция для пагинации
func (s *Store) paginateComments(ids []string, page storage.PaginationArgs) []*domain.Comment {
	page = page.Normalize()

	all := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.liveComment(id); ok {
			all = append(all, c)
		}
	}
	// Сортируем по времени создания, чтобы пагинация была консистентной
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	start := page.Offset
	if start >= len(all) {
		return []*domain.Comment{}
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]*domain.Comment, len(parentIDs))
	for _, pID := range parentIDs {
		childIDs := s.commentsByParent[pID]
		children := make([]*domain.Comment, 0, len(childIDs))
		for _, cID := range childIDs {
			if c, ok := s.liveComment(cID); ok {
				children = append(children, c)
			}
		}
		// Dataloader'у нужны отсортированные данные для консистентности
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].CreatedAt.Before(children[j].CreatedAt)
		})
		results[pID] = children
	}
	return results, nil
}

// === Reaction Methods ===

// subjectExists проверяет, что цель реакции существует и не удалена.
// Вызывается под мьютексом.
func (s *Store) subjectExists(subject domain.SubjectRef) bool {
	switch subject.Kind {
	case domain.SubjectPost:
		_, ok := s.livePost(subject.ID)
		return ok
	case domain.SubjectComment:
		_, ok := s.liveComment(subject.ID)
		return ok
	}
	return false
}

func (s *Store) ToggleReaction(ctx context.Context, subject domain.SubjectRef, userID, kind string) (*domain.ToggleResult, error) {
	if !domain.IsValidReactionKind(kind) {
		return nil, domain.ValidationError("unknown reaction kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.subjectExists(subject) {
		return nil, domain.NotFoundError(string(subject.Kind))
	}

	key := reactionKey{subjectKind: subject.Kind, subjectID: subject.ID, userID: userID}
	now := s.now()

	var action domain.ToggleAction
	existing, ok := s.reactions[key]
	switch {
	case !ok:
		s.reactions[key] = &domain.Reaction{
			ID:          uuid.NewString(),
			SubjectKind: subject.Kind,
			SubjectID:   subject.ID,
			UserID:      userID,
			Kind:        kind,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		action = domain.ToggleAdded
	case existing.Kind == kind:
		delete(s.reactions, key)
		action = domain.ToggleRemoved
	default:
		existing.Kind = kind
		existing.UpdatedAt = now
		action = domain.ToggleChanged
	}

	summary := s.summaryLocked(subject, &userID)
	return &domain.ToggleResult{Action: action, Summary: summary}, nil
}

func (s *Store) GetReactionSummary(ctx context.Context, subject domain.SubjectRef, viewerID *string) (*domain.ReactionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.subjectExists(subject) {
		return nil, domain.NotFoundError(string(subject.Kind))
	}
	return s.summaryLocked(subject, viewerID), nil
}

func (s *Store) GetReactionSummaries(ctx context.Context, subjects []domain.SubjectRef, viewerID *string) (map[domain.SubjectRef]*domain.ReactionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.SubjectRef]*domain.ReactionSummary, len(subjects))
	for _, subject := range subjects {
		out[subject] = s.summaryLocked(subject, viewerID)
	}
	return out, nil
}

// summaryLocked собирает сводку по цели. Вызывается под мьютексом.
func (s *Store) summaryLocked(subject domain.SubjectRef, viewerID *string) *domain.ReactionSummary {
	summary := domain.EmptySummary(subject)
	for key, r := range s.reactions {
		if key.subjectKind != subject.Kind || key.subjectID != subject.ID {
			continue
		}
		summary.ApplyCount(r.Kind, 1)
		if viewerID != nil && key.userID == *viewerID {
			kind := r.Kind
			summary.ViewerKind = &kind
		}
	}
	return summary
}

// === View Methods ===

func (s *Store) RecordView(ctx context.Context, postID string, userID *string, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.livePost(postID)
	if !ok {
		return false, domain.NotFoundError("post")
	}

	now := s.now()
	key := viewKey{
		postID:   postID,
		dedupKey: domain.ViewDedupKey(userID, fingerprint),
		bucket:   domain.ViewBucket(now),
	}
	if _, seen := s.views[key]; seen {
		// Повторный просмотр в окне дедупликации - счетчик не растет
		return false, nil
	}

	s.views[key] = &domain.ViewEvent{
		ID:          uuid.NewString(),
		PostID:      postID,
		UserID:      userID,
		Fingerprint: fingerprint,
		DedupKey:    key.dedupKey,
		BucketStart: key.bucket,
		ViewedAt:    now,
	}
	post.ViewCount++
	return true, nil
}

// === Category Methods ===

func (s *Store) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ValidationError("category name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return nil, domain.ConflictError("category %q already exists", name)
		}
	}
	cat := &domain.Category{ID: uuid.NewString(), Name: name, Slug: domain.Slugify(name)}
	s.categories[cat.ID] = cat
	return cat, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
