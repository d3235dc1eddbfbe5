package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"notepad/internal/contract"
	"notepad/internal/domain/entity"
	"notepad/internal/domain/sqlite"
	"notepad/internal/domain/sqlite/repository"
	"notepad/internal/utils"

	"github.com/go-playground/validator/v10"
)

type mockMailer struct {
	sendFn func(ctx context.Context, to, title, content string) error
	calls  int
}

func (m *mockMailer) SendNote(ctx context.Context, to, title, content string) error {
	m.calls++
	if m.sendFn != nil {
		return m.sendFn(ctx, to, title, content)
	}
	return nil
}

type stubMetrics struct {
	created, deleted, sent, failed int
}

func (s *stubMetrics) RecordNoteCreated() { s.created++ }
func (s *stubMetrics) RecordNoteDeleted() { s.deleted++ }
func (s *stubMetrics) RecordEmailSent()   { s.sent++ }
func (s *stubMetrics) RecordEmailFailed() { s.failed++ }

type noteFixture struct {
	service *DefaultNoteService
	mailer  *mockMailer
	metrics *stubMetrics
	users   *repository.DefaultUserRepository
}

func newNoteFixture(t *testing.T) *noteFixture {
	t.Helper()

	db, err := sqlite.Init(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	mailer := &mockMailer{}
	met := &stubMetrics{}
	return &noteFixture{
		service: NewNoteService(repository.NewNoteRepository(db), mailer, validator.New(), met),
		mailer:  mailer,
		metrics: met,
		users:   repository.NewUserRepository(db),
	}
}

func (f *noteFixture) newUser(t *testing.T, sub, email string) *entity.User {
	t.Helper()

	now := utils.NowUTC()
	user := &entity.User{
		SubjectID: &sub,
		Email:     email,
		Name:      utils.EmailLocalPart(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.users.Save(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func boolPtr(b bool) *bool { return &b }

func TestCreateNoteRoundTrip(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	created, apierr := f.service.CreateNote(user, &contract.NoteRequest{
		Title:   "Groceries",
		Content: "milk, eggs",
	})
	if apierr != nil {
		t.Fatalf("create failed: %+v", apierr)
	}

	if created.IsFavorite {
		t.Error("favorite should default to false")
	}
	if created.CreatedAt != created.UpdatedAt {
		t.Errorf("createdAt %s != updatedAt %s on create", created.CreatedAt, created.UpdatedAt)
	}
	if created.UserEmail != "alice@example.com" {
		t.Errorf("unexpected userEmail %q", created.UserEmail)
	}

	got, apierr := f.service.GetNoteByID(user, created.ID)
	if apierr != nil {
		t.Fatalf("get failed: %+v", apierr)
	}
	if got.Title != "Groceries" || got.Content != "milk, eggs" || got.IsFavorite {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestCreateNoteRequiresTitle(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	_, apierr := f.service.CreateNote(user, &contract.NoteRequest{Content: "no title"})
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", apierr)
	}

	// Whitespace-only titles are trimmed before validation.
	_, apierr = f.service.CreateNote(user, &contract.NoteRequest{Title: "   "})
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %+v", apierr)
	}
}

func TestUpdateNoteRefreshesTimestamp(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	created, _ := f.service.CreateNote(user, &contract.NoteRequest{
		Title:   "Groceries",
		Content: "milk, eggs",
	})

	updated, apierr := f.service.UpdateNote(user, created.ID, &contract.NoteRequest{
		Title:      "Groceries",
		Content:    "milk, eggs, bread",
		IsFavorite: boolPtr(true),
	})
	if apierr != nil {
		t.Fatalf("update failed: %+v", apierr)
	}

	if updated.Content != "milk, eggs, bread" || !updated.IsFavorite {
		t.Errorf("update not applied: %+v", updated)
	}

	// The response renders second-precision RFC3339; assert ordering on
	// the stored millis instead.
	raw, err := f.service.NoteRepo.FindByIDAndUser(created.ID, user.ID)
	if err != nil || raw == nil {
		t.Fatalf("failed to reload note: %v", err)
	}
	if raw.UpdatedAt <= raw.CreatedAt {
		t.Errorf("updatedAt %d not after createdAt %d", raw.UpdatedAt, raw.CreatedAt)
	}
}

func TestUpdateKeepsFavoriteWhenOmitted(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	created, _ := f.service.CreateNote(user, &contract.NoteRequest{
		Title:      "Pinned",
		IsFavorite: boolPtr(true),
	})

	updated, apierr := f.service.UpdateNote(user, created.ID, &contract.NoteRequest{
		Title:   "Pinned",
		Content: "new content",
	})
	if apierr != nil {
		t.Fatalf("update failed: %+v", apierr)
	}
	if !updated.IsFavorite {
		t.Error("favorite flag should survive an update that omits it")
	}
}

func TestOwnershipIsolation(t *testing.T) {
	f := newNoteFixture(t)
	alice := f.newUser(t, "sub-a", "alice@example.com")
	bob := f.newUser(t, "sub-b", "bob@example.com")

	note, _ := f.service.CreateNote(alice, &contract.NoteRequest{Title: "Private"})

	if _, apierr := f.service.GetNoteByID(bob, note.ID); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("get by non-owner should be 404, got %+v", apierr)
	}

	if _, apierr := f.service.UpdateNote(bob, note.ID, &contract.NoteRequest{Title: "Stolen"}); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("update by non-owner should be 404, got %+v", apierr)
	}

	if apierr := f.service.DeleteNote(bob, note.ID); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("delete by non-owner should be 404, got %+v", apierr)
	}

	// The note is untouched for its owner.
	got, apierr := f.service.GetNoteByID(alice, note.ID)
	if apierr != nil || got.Title != "Private" {
		t.Errorf("owner lost access to own note: %+v %+v", got, apierr)
	}
}

func TestDeleteIsIdempotentlyNotFound(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	note, _ := f.service.CreateNote(user, &contract.NoteRequest{Title: "Gone"})

	if apierr := f.service.DeleteNote(user, note.ID); apierr != nil {
		t.Fatalf("first delete failed: %+v", apierr)
	}
	if apierr := f.service.DeleteNote(user, note.ID); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("second delete should be 404, got %+v", apierr)
	}
	if _, apierr := f.service.GetNoteByID(user, note.ID); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Errorf("get after delete should be 404, got %+v", apierr)
	}
}

func TestSearchNotes(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	f.service.CreateNote(user, &contract.NoteRequest{Title: "Team Meeting Notes"})
	f.service.CreateNote(user, &contract.NoteRequest{Title: "Ideas", Content: "schedule a meeting with Bob"})
	f.service.CreateNote(user, &contract.NoteRequest{Title: "Groceries", Content: "milk"})

	results, apierr := f.service.SearchNotes(user, "Meeting")
	if apierr != nil {
		t.Fatalf("search failed: %+v", apierr)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
	for _, r := range results {
		if r.Title == "Groceries" {
			t.Error("search matched a note with the keyword in neither field")
		}
	}
}

func TestSearchEmptyKeywordMatchesNothing(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")
	f.service.CreateNote(user, &contract.NoteRequest{Title: "Anything"})

	for _, keyword := range []string{"", "   "} {
		results, apierr := f.service.SearchNotes(user, keyword)
		if apierr != nil {
			t.Fatalf("search failed: %+v", apierr)
		}
		if len(results) != 0 {
			t.Errorf("keyword %q should match nothing, got %d notes", keyword, len(results))
		}
	}
}

func TestFavoritesAndStats(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	f.service.CreateNote(user, &contract.NoteRequest{Title: "Plain"})
	f.service.CreateNote(user, &contract.NoteRequest{Title: "Starred", IsFavorite: boolPtr(true)})

	favorites, apierr := f.service.GetFavoriteNotes(user)
	if apierr != nil {
		t.Fatalf("favorites failed: %+v", apierr)
	}
	if len(favorites) != 1 || favorites[0].Title != "Starred" {
		t.Errorf("unexpected favorites: %+v", favorites)
	}

	stats, apierr := f.service.GetStats(user)
	if apierr != nil {
		t.Fatalf("stats failed: %+v", apierr)
	}
	if stats.TotalNotes != 2 || stats.FavoriteNotes != 1 || stats.UserEmail != "alice@example.com" {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestSendByEmail(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	note, _ := f.service.CreateNote(user, &contract.NoteRequest{Title: "Recipe", Content: "flour, sugar"})

	resp, apierr := f.service.SendByEmail(context.Background(), user, note.ID, "friend@example.com")
	if apierr != nil {
		t.Fatalf("send failed: %+v", apierr)
	}
	if resp.NoteID != note.ID || resp.NoteTitle != "Recipe" || resp.SentTo != "friend@example.com" {
		t.Errorf("unexpected confirmation: %+v", resp)
	}
	if f.mailer.calls != 1 {
		t.Errorf("expected 1 delivery attempt, got %d", f.mailer.calls)
	}
}

func TestSendByEmailNotOwnedNeverInvokesMailer(t *testing.T) {
	f := newNoteFixture(t)
	alice := f.newUser(t, "sub-a", "alice@example.com")
	bob := f.newUser(t, "sub-b", "bob@example.com")

	note, _ := f.service.CreateNote(alice, &contract.NoteRequest{Title: "Private"})

	_, apierr := f.service.SendByEmail(context.Background(), bob, note.ID, "friend@example.com")
	if apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", apierr)
	}
	if f.mailer.calls != 0 {
		t.Errorf("mailer must not be invoked for a non-owned note, got %d calls", f.mailer.calls)
	}
}

func TestSendByEmailDeliveryFailure(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")
	f.mailer.sendFn = func(context.Context, string, string, string) error {
		return errors.New("provider unavailable")
	}

	note, _ := f.service.CreateNote(user, &contract.NoteRequest{Title: "Doomed"})

	_, apierr := f.service.SendByEmail(context.Background(), user, note.ID, "friend@example.com")
	if apierr == nil || apierr.Code() != http.StatusInternalServerError {
		t.Fatalf("expected 500 delivery error, got %+v", apierr)
	}
	if f.metrics.failed != 1 || f.metrics.sent != 0 {
		t.Errorf("metrics mismatch: sent=%d failed=%d", f.metrics.sent, f.metrics.failed)
	}
}

func TestSendByEmailRejectsBadRecipient(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")
	note, _ := f.service.CreateNote(user, &contract.NoteRequest{Title: "Recipe"})

	_, apierr := f.service.SendByEmail(context.Background(), user, note.ID, "not-an-email")
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", apierr)
	}
	if f.mailer.calls != 0 {
		t.Error("mailer must not be invoked for an invalid recipient")
	}
}

func TestListAllNewestFirst(t *testing.T) {
	f := newNoteFixture(t)
	user := f.newUser(t, "sub-a", "alice@example.com")

	// Distinct created timestamps so the DESC ordering is observable.
	repo := f.service.NoteRepo
	base := utils.NowUTC()
	for i, title := range []string{"first", "second", "third"} {
		note := &entity.Note{
			Title:     title,
			UserID:    user.ID,
			CreatedAt: base + int64(i),
			UpdatedAt: base + int64(i),
		}
		if err := repo.Save(note); err != nil {
			t.Fatalf("failed to seed note: %v", err)
		}
	}

	notes, apierr := f.service.GetAllNotes(user)
	if apierr != nil {
		t.Fatalf("list failed: %+v", apierr)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	if notes[0].Title != "third" || notes[2].Title != "first" {
		t.Errorf("notes not in creation-time descending order: %v, %v, %v",
			notes[0].Title, notes[1].Title, notes[2].Title)
	}
}
