package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/aiquiz"
	"github.com/saulo-duarte/docquiz/internal/cache"
	"github.com/saulo-duarte/docquiz/internal/document"
	"github.com/saulo-duarte/docquiz/internal/retrieval"
)

type createFixture struct {
	repo      *fakeRepo
	generator *fakeGenerator
	documents *fakeDocuments
	retriever *fakeRetriever
	svc       QuizService

	userID uuid.UUID
	docID  uuid.UUID
}

func newCreateFixture(processed bool) *createFixture {
	f := &createFixture{
		repo:      newFakeRepo(),
		generator: &fakeGenerator{},
		retriever: &fakeRetriever{},
		userID:    uuid.New(),
		docID:     uuid.New(),
	}
	f.documents = &fakeDocuments{
		docs: map[uuid.UUID]*document.Document{
			f.docID: {ID: f.docID, UserID: f.userID, Name: "notes.pdf", Processed: processed},
		},
		content: map[uuid.UUID]string{
			f.docID: "full document text",
		},
	}
	f.svc = NewService(f.repo, f.generator, f.documents, f.retriever, cache.NewRedisCache("", ""), 0.7, 5)
	return f
}

func defaultSettings() aiquiz.Settings {
	return aiquiz.Settings{QuestionCount: 3, Difficulty: aiquiz.DifficultyMedium}
}

func TestCreateQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		f := newCreateFixture(true)
		result, err := f.svc.CreateQuiz(ctx, f.userID, CreateQuizRequestDTO{
			DocumentID: f.docID,
			Title:      "My Quiz",
			Settings:   defaultSettings(),
		})
		if err != nil {
			t.Fatalf("CreateQuiz: %v", err)
		}
		if result.Quiz.Title != "My Quiz" {
			t.Errorf("got title %q", result.Quiz.Title)
		}
		if len(result.Questions) != 3 {
			t.Fatalf("got %d questions, want 3", len(result.Questions))
		}
		for i, q := range result.Questions {
			if q.OrderIndex != i {
				t.Errorf("question %d has order index %d", i, q.OrderIndex)
			}
			if q.QuizID != result.Quiz.ID {
				t.Errorf("question %d not linked to quiz", i)
			}
		}
		if f.generator.lastGrounding != "full document text" {
			t.Errorf("got grounding %q", f.generator.lastGrounding)
		}

		persisted, err := f.repo.FindByID(result.Quiz.ID)
		if err != nil || persisted == nil {
			t.Fatalf("quiz not persisted: %v", err)
		}
	})

	t.Run("FocusAreasUseRetrievedChunks", func(t *testing.T) {
		f := newCreateFixture(true)
		f.retriever.results = []retrieval.SearchResult{
			{Chunk: &document.DocumentChunk{Content: "chunk one"}, Score: 0.9},
			{Chunk: &document.DocumentChunk{Content: "chunk two"}, Score: 0.8},
		}
		settings := defaultSettings()
		settings.FocusAreas = []string{"mitosis", "meiosis"}

		if _, err := f.svc.CreateQuiz(ctx, f.userID, CreateQuizRequestDTO{
			DocumentID: f.docID,
			Title:      "t",
			Settings:   settings,
		}); err != nil {
			t.Fatalf("CreateQuiz: %v", err)
		}
		if f.retriever.lastQuery != "mitosis meiosis" {
			t.Errorf("got retrieval query %q", f.retriever.lastQuery)
		}
		if f.generator.lastGrounding != "chunk one\n\nchunk two" {
			t.Errorf("got grounding %q", f.generator.lastGrounding)
		}
	})

	t.Run("FocusAreasFallBackToFullText", func(t *testing.T) {
		f := newCreateFixture(true)
		settings := defaultSettings()
		settings.FocusAreas = []string{"a topic the document never mentions"}

		if _, err := f.svc.CreateQuiz(ctx, f.userID, CreateQuizRequestDTO{
			DocumentID: f.docID,
			Title:      "t",
			Settings:   settings,
		}); err != nil {
			t.Fatalf("CreateQuiz: %v", err)
		}
		if f.generator.lastGrounding != "full document text" {
			t.Errorf("got grounding %q", f.generator.lastGrounding)
		}
	})

	t.Run("GeneratedTitleWhenUnset", func(t *testing.T) {
		f := newCreateFixture(true)
		result, err := f.svc.CreateQuiz(ctx, f.userID, CreateQuizRequestDTO{
			DocumentID: f.docID,
			Settings:   defaultSettings(),
		})
		if err != nil {
			t.Fatalf("CreateQuiz: %v", err)
		}
		if result.Quiz.Title != "Generated Title" {
			t.Errorf("got title %q", result.Quiz.Title)
		}
	})

	t.Run("TitleFallsBackToDocumentName", func(t *testing.T) {
		f := newCreateFixture(true)
		f.generator.titleErr = errors.New("model down")
		result, err := f.svc.CreateQuiz(ctx, f.userID, CreateQuizRequestDTO{
			DocumentID: f.docID,
			Settings:   defaultSettings(),
		})
		if err != nil {
			t.Fatalf("CreateQuiz: %v", err)
		}
		if result.Quiz.Title != "notes.pdf" {
			t.Errorf("got title %q", result.Quiz.Title)
		}
	})

	t.Run("UnprocessedDocument", func(t *testing.T) {
		f := newCreateFixture(false)
		_, err := f.svc.CreateQuiz(ctx, f.userID, CreateQuizRequestDTO{
			DocumentID: f.docID,
			Settings:   defaultSettings(),
		})
		if !errors.Is(err, document.ErrDocumentNotProcessed) {
			t.Fatalf("got %v, want ErrDocumentNotProcessed", err)
		}
	})

	t.Run("UnknownDocument", func(t *testing.T) {
		f := newCreateFixture(true)
		_, err := f.svc.CreateQuiz(ctx, f.userID, CreateQuizRequestDTO{
			DocumentID: uuid.New(),
			Settings:   defaultSettings(),
		})
		if !errors.Is(err, document.ErrDocumentNotFound) {
			t.Fatalf("got %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("OtherUsersDocument", func(t *testing.T) {
		f := newCreateFixture(true)
		_, err := f.svc.CreateQuiz(ctx, uuid.New(), CreateQuizRequestDTO{
			DocumentID: f.docID,
			Settings:   defaultSettings(),
		})
		if !errors.Is(err, document.ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
	})
}

func TestQuizLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newCreateFixture(true)

	created, err := f.svc.CreateQuiz(ctx, f.userID, CreateQuizRequestDTO{
		DocumentID: f.docID,
		Title:      "lifecycle",
		Settings:   defaultSettings(),
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	got, err := f.svc.GetQuiz(ctx, created.Quiz.ID, f.userID)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if len(got.Questions) != 3 {
		t.Errorf("got %d questions, want 3", len(got.Questions))
	}

	if _, err := f.svc.GetQuiz(ctx, created.Quiz.ID, uuid.New()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}

	listed, err := f.svc.ListQuizzesByUser(ctx, f.userID)
	if err != nil {
		t.Fatalf("ListQuizzesByUser: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("got %d quizzes, want 1", len(listed))
	}

	if err := f.svc.DeleteQuiz(ctx, created.Quiz.ID, f.userID); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}
	if _, err := f.svc.GetQuiz(ctx, created.Quiz.ID, f.userID); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("got %v, want ErrQuizNotFound after delete", err)
	}
}
