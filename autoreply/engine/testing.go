package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/replyforge/replyforge/autoreply/classifier"
	"github.com/replyforge/replyforge/autoreply/platform"
	"github.com/replyforge/replyforge/autoreply/quotastore"
	"github.com/replyforge/replyforge/models"
	"github.com/replyforge/replyforge/store"
)

// Fully wired engine against an in-memory database, for tests.
type TestFixture struct {
	Engine     *Engine
	DB         *gorm.DB
	Store      *store.Store
	Adapter    *platform.MockAdapter
	Classifier *classifier.MockClient

	cancel context.CancelFunc
}

func EngineTestFixture() *TestFixture {
	logger := slog.Default()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		panic(err)
	}
	sqldb, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqldb.SetMaxOpenConns(1)

	st, err := store.NewStore(db, logger)
	if err != nil {
		panic(err)
	}

	adapter := platform.NewMockAdapter()
	cls := classifier.NewMockClient()

	dispatcher := NewDispatcher(db, DispatcherConfig{
		Adapter:       adapter,
		Logger:        logger,
		SendRateLimit: 1000,
		CallTimeout:   5 * time.Second,
	})
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx, 2)

	eng := &Engine{
		Logger:     logger,
		DB:         db,
		Rules:      st,
		Quotas:     quotastore.NewMemQuotaStore(),
		Matcher:    NewMatcher(cls),
		Dispatcher: dispatcher,
	}

	return &TestFixture{
		Engine:     eng,
		DB:         db,
		Store:      st,
		Adapter:    adapter,
		Classifier: cls,
		cancel:     cancel,
	}
}

func (f *TestFixture) Close() {
	f.cancel()
}

// Comment event with plausible author metadata.
func TestCommentEvent(platform models.Platform, commentID, text string) *CommentEvent {
	return &CommentEvent{
		Platform:   platform,
		ContentID:  "video123",
		CommentID:  commentID,
		VideoTitle: "My Latest Video",
		Author: CommentAuthor{
			Name:          gofakeit.Username(),
			Verified:      false,
			FollowerCount: int64(gofakeit.Number(10, 5000)),
		},
		Text:      text,
		Timestamp: time.Now(),
	}
}
