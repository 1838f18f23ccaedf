package dataloader

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// subjectKey адаптирует SubjectRef под ключ Dataloader'а.
type subjectKey domain.SubjectRef

func (k subjectKey) String() string   { return string(k.Kind) + ":" + k.ID }
func (k subjectKey) Raw() interface{} { return domain.SubjectRef(k) }

// Loaders содержит все дата-лоадеры приложения. Они живут в рамках одного
// запроса: сводки реакций и дочерние комментарии для целой страницы
// грузятся одним запросом к БД вместо запроса на элемент.
type Loaders struct {
	ChildrenByCommentID      *dataloader.Loader
	ReactionSummaryBySubject *dataloader.Loader
}

// Middleware для внедрения лоадеров в контекст запроса. viewerOf извлекает
// идентификатор зрителя из запроса: сводки реакций зависят от него.
func Middleware(store storage.Storage, viewerOf func(*http.Request) *string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := viewerOf(r)

		childrenFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
			parentIDs := make([]string, len(keys))
			for i, k := range keys {
				parentIDs[i] = k.String()
			}

			// Один запрос к БД на весь батч
			commentsMap, err := store.GetCommentsByParentIDs(ctx, parentIDs)
			if err != nil {
				return errorResults(keys, err)
			}

			results := make([]*dataloader.Result, len(keys))
			for i, parentID := range parentIDs {
				results[i] = &dataloader.Result{Data: commentsMap[parentID]}
			}
			return results
		}

		summaryFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
			subjects := make([]domain.SubjectRef, len(keys))
			for i, k := range keys {
				subjects[i] = k.Raw().(domain.SubjectRef)
			}

			summaries, err := store.GetReactionSummaries(ctx, subjects, viewer)
			if err != nil {
				return errorResults(keys, err)
			}

			// Результаты в том же порядке, что и ключи
			results := make([]*dataloader.Result, len(keys))
			for i, subject := range subjects {
				summary, ok := summaries[subject]
				if !ok {
					results[i] = &dataloader.Result{Error: errors.New("no summary for " + keys[i].String())}
					continue
				}
				results[i] = &dataloader.Result{Data: summary}
			}
			return results
		}

		loaders := Loaders{
			ChildrenByCommentID:      dataloader.NewBatchedLoader(childrenFn, dataloader.WithWait(time.Millisecond*1)),
			ReactionSummaryBySubject: dataloader.NewBatchedLoader(summaryFn, dataloader.WithWait(time.Millisecond*1)),
		}

		ctx := context.WithValue(r.Context(), key, &loaders)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func errorResults(keys dataloader.Keys, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, len(keys))
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}

// For извлекает лоадеры из контекста. Возвращает nil, если middleware
// не был подключен - вызывающие обязаны проверять.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}

// Summary загружает сводку реакций через батч-лоадер.
func (l *Loaders) Summary(ctx context.Context, subject domain.SubjectRef) (*domain.ReactionSummary, error) {
	thunk := l.ReactionSummaryBySubject.Load(ctx, subjectKey(subject))
	v, err := thunk()
	if err != nil {
		return nil, err
	}
	return v.(*domain.ReactionSummary), nil
}

// Summaries загружает сводки для набора целей; батчер склеит их в один
// запрос, порядок результата соответствует subjects.
func (l *Loaders) Summaries(ctx context.Context, subjects []domain.SubjectRef) ([]*domain.ReactionSummary, error) {
	keys := make(dataloader.Keys, len(subjects))
	for i, s := range subjects {
		keys[i] = subjectKey(s)
	}
	thunk := l.ReactionSummaryBySubject.LoadMany(ctx, keys)
	values, errs := thunk()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	out := make([]*domain.ReactionSummary, len(values))
	for i, v := range values {
		out[i] = v.(*domain.ReactionSummary)
	}
	return out, nil
}

// Children загружает дочерние комментарии через батч-лоадер.
func (l *Loaders) Children(ctx context.Context, parentID string) ([]*domain.Comment, error) {
	thunk := l.ChildrenByCommentID.Load(ctx, dataloader.StringKey(parentID))
	v, err := thunk()
	if err != nil {
		return nil, err
	}
	comments, _ := v.([]*domain.Comment)
	return comments, nil
}
