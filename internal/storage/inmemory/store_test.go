package inmemory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore создает хранилище с управляемыми часами и один
// опубликованный пост для тестов.
func newTestStore(t *testing.T) (*Store, *domain.Post) {
	store := New()
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	ctx := context.Background()
	post, err := store.CreatePost(ctx, storage.NewPost{
		Title:    "Test Post",
		Content:  "Content",
		AuthorID: "user-1",
	})
	require.NoError(t, err)

	published := domain.StatusPublished
	post, err = store.UpdatePost(ctx, post.ID, "user-1", storage.PostUpdate{Status: &published})
	require.NoError(t, err)
	return store, post
}

// advanceClock сдвигает часы хранилища вперед.
func advanceClock(s *Store, d time.Duration) {
	prev := s.now
	s.now = func() time.Time { return prev().Add(d) }
}

// === Posts ===

func TestStore_CreateAndGetPost(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, retrieved.Title)
	assert.Equal(t, "test-post", retrieved.Slug)

	bySlug, err := store.GetPostBySlug(ctx, "test-post")
	require.NoError(t, err)
	assert.Equal(t, post.ID, bySlug.ID)

	_, err = store.GetPostByID(ctx, "non-existent-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CreatePost_SlugConflict(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreatePost(ctx, storage.NewPost{
		Title:    "Test Post",
		Content:  "Another content",
		AuthorID: "user-2",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_CreatePost_Validation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreatePost(ctx, storage.NewPost{Title: "a", Content: "x", AuthorID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.CreatePost(ctx, storage.NewPost{Title: "Valid title", Content: "  ", AuthorID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	long := strings.Repeat("a", domain.MaxContentLen+1)
	_, err = store.CreatePost(ctx, storage.NewPost{Title: "Valid title", Content: long, AuthorID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_PublishSetsTimestampOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, storage.NewPost{
		Title: "Draft post", Content: "Content", AuthorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)

	published := domain.StatusPublished
	post, err = store.UpdatePost(ctx, post.ID, "user-1", storage.PostUpdate{Status: &published})
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	assert.False(t, post.PublishedAt.After(store.now()))
	firstPublish := *post.PublishedAt

	// Архивация не трогает published_at
	archived := domain.StatusArchived
	post, err = store.UpdatePost(ctx, post.ID, "user-1", storage.PostUpdate{Status: &archived})
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, firstPublish, *post.PublishedAt)

	// Повторная публикация тоже: метка фиксирует ПЕРВУЮ публикацию
	post, err = store.UpdatePost(ctx, post.ID, "user-1", storage.PostUpdate{Status: &published})
	require.NoError(t, err)
	assert.Equal(t, firstPublish, *post.PublishedAt)
}

func TestStore_InvalidStatusTransitions(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	// published -> draft запрещен
	draft := domain.StatusDraft
	_, err := store.UpdatePost(ctx, post.ID, "user-1", storage.PostUpdate{Status: &draft})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// scheduled без времени и со временем в прошлом
	fresh, err := store.CreatePost(ctx, storage.NewPost{Title: "Another", Content: "Content", AuthorID: "user-1"})
	require.NoError(t, err)

	scheduled := domain.StatusScheduled
	_, err = store.UpdatePost(ctx, fresh.ID, "user-1", storage.PostUpdate{Status: &scheduled})
	assert.ErrorIs(t, err, domain.ErrValidation)

	past := store.now().Add(-time.Hour)
	_, err = store.UpdatePost(ctx, fresh.ID, "user-1", storage.PostUpdate{Status: &scheduled, ScheduledAt: &past})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// scheduled -> draft запрещен: расписание не отменяется, только публикуется
	future := store.now().Add(time.Hour)
	fresh, err = store.UpdatePost(ctx, fresh.ID, "user-1", storage.PostUpdate{Status: &scheduled, ScheduledAt: &future})
	require.NoError(t, err)
	require.Equal(t, domain.StatusScheduled, fresh.Status)

	_, err = store.UpdatePost(ctx, fresh.ID, "user-1", storage.PostUpdate{Status: &draft})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := store.GetPostByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, got.Status)
	assert.NotNil(t, got.ScheduledAt)
}

func TestStore_PublishDue(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, storage.NewPost{Title: "Scheduled post", Content: "Content", AuthorID: "user-1"})
	require.NoError(t, err)

	target := store.now().Add(30 * time.Minute)
	scheduled := domain.StatusScheduled
	post, err = store.UpdatePost(ctx, post.ID, "user-1", storage.PostUpdate{Status: &scheduled, ScheduledAt: &target})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, post.Status)

	// До срока ничего не публикуется
	n, err := store.PublishDue(ctx, target.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = store.PublishDue(ctx, target.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	post, err = store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, post.Status)
	assert.NotNil(t, post.PublishedAt)
	assert.Nil(t, post.ScheduledAt)

	// Повторный вызов идемпотентен
	n, err = store.PublishDue(ctx, target.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_UpdatePost_Ownership(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	title := "Hijacked"
	_, err := store.UpdatePost(ctx, post.ID, "user-2", storage.PostUpdate{Title: &title})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	err = store.DeletePost(ctx, post.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestStore_SoftDeletePost(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.DeletePost(ctx, post.ID, "user-1"))

	_, err := store.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, total, err := store.ListPosts(ctx, storage.PostFilter{}, storage.PostSort{}, storage.PaginationArgs{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStore_ListPosts_PaginationExact(t *testing.T) {
	store, base := newTestStore(t)
	ctx := context.Background()

	// Вместе с базовым постом - 25 подходящих
	for i := 0; i < 24; i++ {
		_, err := store.CreatePost(ctx, storage.NewPost{
			Title:    fmt.Sprintf("Post number %02d", i),
			Content:  "Content",
			AuthorID: "user-1",
		})
		require.NoError(t, err)
	}

	sortBy := storage.PostSort{Field: storage.SortCreatedAt}
	seen := make(map[string]int)
	var gathered []string
	for pageNum := 0; pageNum < 3; pageNum++ {
		items, total, err := store.ListPosts(ctx, storage.PostFilter{}, sortBy, storage.PaginationArgs{Limit: 10, Offset: pageNum * 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		for _, p := range items {
			seen[p.ID]++
			gathered = append(gathered, p.ID)
		}
	}

	// Конкатенация страниц воспроизводит весь набор ровно по одному разу
	require.Len(t, gathered, 25)
	for id, n := range seen {
		assert.Equalf(t, 1, n, "post %s appeared %d times", id, n)
	}
	assert.Equal(t, base.ID, gathered[0]) // сортировка по created_at asc стабильна
}

func TestStore_ListPosts_Filters(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, "Go")
	require.NoError(t, err)

	tagged, err := store.CreatePost(ctx, storage.NewPost{
		Title:      "Tagged post about generics",
		Content:    "Deep dive",
		Summary:    "generics",
		CategoryID: &cat.ID,
		Tags:       []string{"go", "generics"},
		AuthorID:   "user-2",
	})
	require.NoError(t, err)

	// По рубрике
	items, total, err := store.ListPosts(ctx, storage.PostFilter{CategoryID: &cat.ID}, storage.PostSort{}, storage.PaginationArgs{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, tagged.ID, items[0].ID)

	// По пересечению меток
	_, total, err = store.ListPosts(ctx, storage.PostFilter{Tags: []string{"generics", "rust"}}, storage.PostSort{}, storage.PaginationArgs{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// По статусу
	published := domain.StatusPublished
	items, _, err = store.ListPosts(ctx, storage.PostFilter{Status: &published}, storage.PostSort{}, storage.PaginationArgs{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, post.ID, items[0].ID)

	// Подстрока без учета регистра по title/content/summary
	_, total, err = store.ListPosts(ctx, storage.PostFilter{Search: "GENERICS"}, storage.PostSort{}, storage.PaginationArgs{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// Неизвестное поле сортировки отклоняется
	_, _, err = store.ListPosts(ctx, storage.PostFilter{}, storage.PostSort{Field: "evil; DROP TABLE"}, storage.PaginationArgs{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_ListPosts_Sort(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	b, err := store.CreatePost(ctx, storage.NewPost{Title: "Alpha", Content: "Content", AuthorID: "user-1"})
	require.NoError(t, err)
	_, err = store.RecordView(ctx, b.ID, nil, "fp-1")
	require.NoError(t, err)

	items, _, err := store.ListPosts(ctx, storage.PostFilter{}, storage.PostSort{Field: storage.SortTitle}, storage.PaginationArgs{})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", items[0].Title)

	items, _, err = store.ListPosts(ctx, storage.PostFilter{}, storage.PostSort{Field: storage.SortViewCount, Desc: true}, storage.PaginationArgs{})
	require.NoError(t, err)
	assert.Equal(t, b.ID, items[0].ID)
}

// === Comments ===

func TestStore_CreateComment_Success(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	comment, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "First comment!"})
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.False(t, comment.IsEdited)

	comments, total, err := store.GetCommentsByPostID(ctx, post.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, comments, 1)
	assert.Equal(t, "First comment!", comments[0].Content)
}

func TestStore_CreateComment_CommentsDisabled(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	_, err := store.ToggleComments(ctx, post.ID, "user-1", false)
	require.NoError(t, err)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "This should fail"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_CreateComment_Validation(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	longContent := strings.Repeat("a", domain.MaxCommentLen+1)
	_, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: longContent})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_CreateComment_ParentChecks(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	missing := "no-such-comment"
	_, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, ParentID: &missing, AuthorID: "user-2", Content: "Reply"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Родитель должен принадлежать тому же посту
	other, err := store.CreatePost(ctx, storage.NewPost{Title: "Other post", Content: "Content", AuthorID: "user-1"})
	require.NoError(t, err)
	foreign, err := store.CreateComment(ctx, &domain.Comment{PostID: other.ID, AuthorID: "user-2", Content: "On other post"})
	require.NoError(t, err)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, ParentID: &foreign.ID, AuthorID: "user-2", Content: "Cross-post reply"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_UpdateComment_SetsEditedFlag(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	comment, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "Original"})
	require.NoError(t, err)

	_, err = store.UpdateComment(ctx, comment.ID, "user-3", "Hacked")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	updated, err := store.UpdateComment(ctx, comment.ID, "user-2", "Edited")
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Content)
	assert.True(t, updated.IsEdited)
	require.NotNil(t, updated.EditedAt)
}

func TestStore_CommentTree_Nested(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	// Пользователь A создает C1, пользователь B отвечает C2
	c1, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-a", Content: "C1"})
	require.NoError(t, err)
	c2, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, ParentID: &c1.ID, AuthorID: "user-b", Content: "C2"})
	require.NoError(t, err)

	tree, err := store.GetCommentTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, c1.ID, tree[0].ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, c2.ID, tree[0].Replies[0].ID)
	assert.Empty(t, tree[0].Replies[0].Replies)
}

func TestStore_DeleteComment_CascadesSubtree(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	root1, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "Root 1"})
	require.NoError(t, err)
	child, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, ParentID: &root1.ID, AuthorID: "user-3", Content: "Child"})
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, ParentID: &child.ID, AuthorID: "user-2", Content: "Grandchild"})
	require.NoError(t, err)
	root2, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-4", Content: "Root 2"})
	require.NoError(t, err)

	// Чужому нельзя
	err = store.DeleteComment(ctx, root1.ID, "user-5")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	// Автор удаляет корень - уходит все поддерево, сосед остается
	require.NoError(t, store.DeleteComment(ctx, root1.ID, "user-2"))

	tree, err := store.GetCommentTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, root2.ID, tree[0].ID)

	_, err = store.GetCommentByID(ctx, child.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteComment_ByPostOwner(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	comment, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "Rude comment"})
	require.NoError(t, err)

	// Владелец поста может удалять чужие комментарии
	require.NoError(t, store.DeleteComment(ctx, comment.ID, "user-1"))

	_, err = store.GetCommentByID(ctx, comment.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CommentPagination(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-1", Content: fmt.Sprintf("comment %d", i)})
		require.NoError(t, err)
	}

	// total отражает весь набор, а не размер страницы
	firstPage, total, err := store.GetCommentsByPostID(ctx, post.ID, storage.PaginationArgs{Limit: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	assert.EqualValues(t, 5, total)

	secondPage, total, err := store.GetCommentsByPostID(ctx, post.ID, storage.PaginationArgs{Limit: 3, Offset: 2})
	require.NoError(t, err)
	require.Len(t, secondPage, 3)
	assert.EqualValues(t, 5, total)

	assert.NotEqual(t, firstPage[0].ID, secondPage[0].ID)
	assert.NotEqual(t, firstPage[1].ID, secondPage[0].ID)
}

func TestStore_GetCommentsByParentIDs(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	p1, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-1", Content: "Parent 1"})
	require.NoError(t, err)
	p2, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-1", Content: "Parent 2"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, ParentID: &p1.ID, AuthorID: "user-2", Content: fmt.Sprintf("reply %d", i)})
		require.NoError(t, err)
	}

	result, err := store.GetCommentsByParentIDs(ctx, []string{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Len(t, result[p1.ID], 2)
	assert.Empty(t, result[p2.ID])
}

// === Reactions ===

func TestStore_ToggleReaction_AddRemove(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()
	subject := domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID}

	before, err := store.GetReactionSummary(ctx, subject, nil)
	require.NoError(t, err)

	res, err := store.ToggleReaction(ctx, subject, "user-2", "like")
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleAdded, res.Action)
	assert.EqualValues(t, before.Total+1, res.Summary.Total)

	// Тот же вид повторно - снятие, сводка возвращается к исходной
	res, err = store.ToggleReaction(ctx, subject, "user-2", "like")
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleRemoved, res.Action)
	assert.Equal(t, before.Total, res.Summary.Total)
	assert.Nil(t, res.Summary.ViewerKind)
}

func TestStore_ToggleReaction_Change(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()
	subject := domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID}

	_, err := store.ToggleReaction(ctx, subject, "user-2", "like")
	require.NoError(t, err)

	res, err := store.ToggleReaction(ctx, subject, "user-2", "love")
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleChanged, res.Action)

	// По-прежнему ровно одна реакция пользователя, вида love
	assert.EqualValues(t, 1, res.Summary.Total)
	require.NotNil(t, res.Summary.ViewerKind)
	assert.Equal(t, "love", *res.Summary.ViewerKind)
	for _, kc := range res.Summary.Counts {
		if kc.Kind == "love" {
			assert.EqualValues(t, 1, kc.Count)
		} else {
			assert.Zero(t, kc.Count)
		}
	}
}

func TestStore_ToggleReaction_LastWriteWins(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()
	subject := domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID}

	// Последовательность переключений: вид равен виду последнего вызова,
	// не завершившегося removed
	kinds := []string{"like", "love", "love", "sad"}
	for _, k := range kinds {
		_, err := store.ToggleReaction(ctx, subject, "user-7", k)
		require.NoError(t, err)
	}
	// like->added, love->changed, love->removed, sad->added

	summary, err := store.GetReactionSummary(ctx, subject, ptr("user-7"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Total)
	require.NotNil(t, summary.ViewerKind)
	assert.Equal(t, "sad", *summary.ViewerKind)
}

func TestStore_ToggleReaction_UnknownKind(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()
	subject := domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID}

	_, err := store.ToggleReaction(ctx, subject, "user-2", "grumpy")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_ToggleReaction_OnComment(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	comment, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "React to me"})
	require.NoError(t, err)
	subject := domain.SubjectRef{Kind: domain.SubjectComment, ID: comment.ID}

	res, err := store.ToggleReaction(ctx, subject, "user-3", "laugh")
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleAdded, res.Action)

	// Реакция на несуществующий комментарий
	_, err = store.ToggleReaction(ctx, domain.SubjectRef{Kind: domain.SubjectComment, ID: "missing"}, "user-3", "laugh")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ToggleReaction_ConcurrentUsers(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()
	subject := domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID}

	// N пользователей ставят реакции параллельно: по одной строке на
	// пользователя, сводка сходится с общим числом
	const n = 16
	var wg sync.WaitGroup
	results := make(chan *domain.ToggleResult, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := store.ToggleReaction(ctx, subject, fmt.Sprintf("user-%d", i), "like")
			errs <- err
			results <- res
		}(i)
	}
	wg.Wait()
	close(errs)
	close(results)

	for err := range errs {
		require.NoError(t, err)
	}
	for res := range results {
		assert.Equal(t, domain.ToggleAdded, res.Action)
	}

	summary, err := store.GetReactionSummary(ctx, subject, nil)
	require.NoError(t, err)
	assert.EqualValues(t, n, summary.Total)

	var sum int64
	for _, kc := range summary.Counts {
		sum += kc.Count
	}
	assert.Equal(t, summary.Total, sum)
}

func TestStore_ReactionSummary_ZeroFilled(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()
	subject := domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID}

	_, err := store.ToggleReaction(ctx, subject, "user-2", "like")
	require.NoError(t, err)
	_, err = store.ToggleReaction(ctx, subject, "user-3", "like")
	require.NoError(t, err)
	_, err = store.ToggleReaction(ctx, subject, "user-4", "wow")
	require.NoError(t, err)

	summary, err := store.GetReactionSummary(ctx, subject, ptr("user-4"))
	require.NoError(t, err)

	// По записи на каждый вид каталога, включая нулевые
	catalog := domain.ReactionCatalog()
	require.Len(t, summary.Counts, len(catalog))
	for i, kc := range summary.Counts {
		assert.Equal(t, catalog[i].Name, kc.Kind)
	}

	var sum int64
	for _, kc := range summary.Counts {
		sum += kc.Count
	}
	assert.Equal(t, summary.Total, sum)
	assert.EqualValues(t, 3, summary.Total)
	require.NotNil(t, summary.ViewerKind)
	assert.Equal(t, "wow", *summary.ViewerKind)
}

func TestStore_GetReactionSummaries_Batch(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	other, err := store.CreatePost(ctx, storage.NewPost{Title: "Second post", Content: "Content", AuthorID: "user-1"})
	require.NoError(t, err)

	s1 := domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID}
	s2 := domain.SubjectRef{Kind: domain.SubjectPost, ID: other.ID}
	_, err = store.ToggleReaction(ctx, s1, "user-2", "like")
	require.NoError(t, err)

	summaries, err := store.GetReactionSummaries(ctx, []domain.SubjectRef{s1, s2}, ptr("user-2"))
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.EqualValues(t, 1, summaries[s1].Total)
	assert.Zero(t, summaries[s2].Total)
	require.NotNil(t, summaries[s1].ViewerKind)
	assert.Nil(t, summaries[s2].ViewerKind)
}

// === Views ===

func TestStore_RecordView_DedupWithinWindow(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	// N просмотров в окне от одного пользователя - счетчик растет на 1
	for i := 0; i < 5; i++ {
		counted, err := store.RecordView(ctx, post.ID, ptr("user-2"), "fp-a")
		require.NoError(t, err)
		assert.Equal(t, i == 0, counted)
	}

	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ViewCount)
}

func TestStore_RecordView_DifferentSources(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	// Аутентифицированный пользователь и два разных анонимных отпечатка
	_, err := store.RecordView(ctx, post.ID, ptr("user-2"), "fp-a")
	require.NoError(t, err)
	_, err = store.RecordView(ctx, post.ID, nil, "fp-a")
	require.NoError(t, err)
	_, err = store.RecordView(ctx, post.ID, nil, "fp-b")
	require.NoError(t, err)
	// Дубликат анонимного
	counted, err := store.RecordView(ctx, post.ID, nil, "fp-b")
	require.NoError(t, err)
	assert.False(t, counted)

	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.ViewCount)
}

func TestStore_RecordView_NewWindowCountsAgain(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	counted, err := store.RecordView(ctx, post.ID, ptr("user-2"), "fp-a")
	require.NoError(t, err)
	assert.True(t, counted)

	// Следующий часовой интервал - просмотр снова считается
	advanceClock(store, domain.ViewDedupWindow+time.Minute)

	counted, err = store.RecordView(ctx, post.ID, ptr("user-2"), "fp-a")
	require.NoError(t, err)
	assert.True(t, counted)

	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.ViewCount)
}

func TestStore_RecordView_ConcurrentDuplicates(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	// N конкурентных просмотров с одним ключом дедупликации - счетчик
	// растет ровно на 1, засчитывается ровно один вызов
	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	counts := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.RecordView(ctx, post.ID, ptr("user-2"), "fp-a")
			errs <- err
			counts <- ok
		}()
	}
	wg.Wait()
	close(errs)
	close(counts)

	for err := range errs {
		require.NoError(t, err)
	}
	var counted int
	for ok := range counts {
		if ok {
			counted++
		}
	}
	assert.Equal(t, 1, counted)
	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ViewCount)
}

func TestStore_RecordView_PostNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.RecordView(ctx, "missing", nil, "fp-a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// === Categories ===

func TestStore_Categories(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, "Базы данных")
	require.NoError(t, err)
	_, err = store.CreateCategory(ctx, "Go")
	require.NoError(t, err)

	_, err = store.CreateCategory(ctx, "go")
	assert.ErrorIs(t, err, domain.ErrConflict)

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Go", cats[0].Name)
}

func ptr(s string) *string { return &s }
