package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/UkralStul/blog-engagement-service/internal/dataloader"
	"github.com/UkralStul/blog-engagement-service/internal/domain"
	"github.com/UkralStul/blog-engagement-service/internal/events"
	"github.com/UkralStul/blog-engagement-service/internal/handlers"
	"github.com/UkralStul/blog-engagement-service/internal/storage"
	"github.com/UkralStul/blog-engagement-service/internal/storage/inmemory"
	"github.com/UkralStul/blog-engagement-service/internal/storage/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	storageType := flag.String("storage", "in-memory", "Storage type (in-memory or postgres)")
	flag.Parse()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger := zapLogger.Sugar()

	var store storage.Storage

	logger.Infow("starting server", "storage", *storageType)
	if *storageType == "postgres" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			logger.Fatal("DATABASE_URL must be set for postgres storage")
		}
		store, err = postgres.New(dsn)
		if err != nil {
			logger.Fatalw("failed to connect to postgres", "error", err)
		}
	} else {
		store = inmemory.New()
		// Заполним данными для тестов
		fillWithMockData(store, logger)
	}

	h := &handlers.Handler{
		Store:    store,
		Observer: events.NewObserver(),
		Logger:   logger,
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	api := dataloader.Middleware(store, handlers.ViewerFromRequest, h.Routes())
	router.Mount("/api/v1", api)

	logger.Infow("listening", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Fatalw("server failed to start", "error", err)
	}
}

func fillWithMockData(s storage.Storage, logger *zap.SugaredLogger) {
	ctx := context.Background()

	// 1. Рубрики по умолчанию
	golangCat, err := s.CreateCategory(ctx, "Go")
	if err != nil {
		logger.Fatalw("fillWithMockData: failed to create category", "error", err)
	}
	if _, err := s.CreateCategory(ctx, "Базы данных"); err != nil {
		logger.Fatalw("fillWithMockData: failed to create category", "error", err)
	}

	// 2. Пост с комментариями и реакциями
	post, err := s.CreatePost(ctx, storage.NewPost{
		Title:      "Тестовый пост о реакциях",
		Content:    "Это содержимое тестового поста. Здесь мы обсуждаем реакции и вложенные комментарии.",
		Summary:    "Реакции и вложенные комментарии",
		Slug:       "test-reactions-post",
		CategoryID: &golangCat.ID,
		Tags:       []string{"go", "engagement"},
		AuthorID:   "user-1",
	})
	if err != nil {
		logger.Fatalw("fillWithMockData: failed to create post", "error", err)
	}

	published := domain.StatusPublished
	if _, err := s.UpdatePost(ctx, post.ID, "user-1", storage.PostUpdate{Status: &published}); err != nil {
		logger.Fatalw("fillWithMockData: failed to publish post", "error", err)
	}

	// 3. Корневой комментарий и ответ на него
	c1, err := s.CreateComment(ctx, &domain.Comment{
		PostID:   post.ID,
		AuthorID: "user-2",
		Content:  "Отличный пост! Очень информативно.",
	})
	if err != nil {
		logger.Fatalw("fillWithMockData: failed to create comment", "error", err)
	}
	if _, err := s.CreateComment(ctx, &domain.Comment{
		PostID:   post.ID,
		ParentID: &c1.ID,
		AuthorID: "user-1",
		Content:  "Спасибо! Рад, что вам понравилось.",
	}); err != nil {
		logger.Fatalw("fillWithMockData: failed to create nested comment", "error", err)
	}

	// 4. Пара реакций для наглядной сводки
	subject := domain.SubjectRef{Kind: domain.SubjectPost, ID: post.ID}
	if _, err := s.ToggleReaction(ctx, subject, "user-2", "like"); err != nil {
		logger.Fatalw("fillWithMockData: failed to add reaction", "error", err)
	}
	if _, err := s.ToggleReaction(ctx, subject, "user-3", "love"); err != nil {
		logger.Fatalw("fillWithMockData: failed to add reaction", "error", err)
	}

	logger.Infow("mock data filled", "postID", post.ID)
}
