package service

import (
	"context"
	"strings"
	"time"

	"notepad/internal/contract"
	"notepad/internal/domain/entity"
	"notepad/internal/utils"
	"notepad/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

// mailSendTimeout bounds the outbound call to the mail provider; the
// provider is the only retry-free external hop on the send path.
const mailSendTimeout = 10 * time.Second

type NoteRepository interface {
	FindAllByUser(userID int64) ([]*entity.Note, error)
	FindByIDAndUser(id, userID int64) (*entity.Note, error)
	FindFavoritesByUser(userID int64) ([]*entity.Note, error)
	SearchByUser(userID int64, keyword string) ([]*entity.Note, error)
	CountByUser(userID int64) (int64, error)
	CountFavoritesByUser(userID int64) (int64, error)
	Save(note *entity.Note) error
	UpdateOwned(id, userID int64, mutate func(*entity.Note)) (*entity.Note, error)
	DeleteOwned(id, userID int64) (bool, error)
}

type Mailer interface {
	SendNote(ctx context.Context, toEmail, noteTitle, noteContent string) error
}

type Metrics interface {
	RecordNoteCreated()
	RecordNoteDeleted()
	RecordEmailSent()
	RecordEmailFailed()
}

type DefaultNoteService struct {
	NoteRepo NoteRepository
	Mail     Mailer
	Validate *validator.Validate
	Metrics  Metrics
}

func NewNoteService(
	noteRepo NoteRepository,
	mailer Mailer,
	validate *validator.Validate,
	metrics Metrics,
) *DefaultNoteService {
	return &DefaultNoteService{
		NoteRepo: noteRepo,
		Mail:     mailer,
		Validate: validate,
		Metrics:  metrics,
	}
}

func (n *DefaultNoteService) GetAllNotes(actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.FindAllByUser(actor.ID)
	if err != nil {
		log.Errorf("failed to fetch notes: %v", err)
		return nil, apierror.InternalServerError
	}
	return toNoteResponses(notes, actor), nil
}

func (n *DefaultNoteService) GetNoteByID(actor *entity.User, noteId int64) (*contract.NoteResponse, apierror.ErrorResponse) {
	note, err := n.NoteRepo.FindByIDAndUser(noteId, actor.ID)
	if err != nil {
		log.Errorf("failed to fetch note: %v", err)
		return nil, apierror.InternalServerError
	}

	// Absent and not-owned are indistinguishable on purpose: a guessed id
	// must never reveal that someone else's note exists.
	if note == nil {
		return nil, apierror.NotFoundError
	}
	return toNoteResponse(note, actor), nil
}

func (n *DefaultNoteService) CreateNote(actor *entity.User, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	favorite := false
	if req.IsFavorite != nil {
		favorite = *req.IsFavorite
	}

	now := utils.NowUTC()
	note := &entity.Note{
		Title:      req.Title,
		Content:    req.Content,
		IsFavorite: favorite,
		UserID:     actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := n.NoteRepo.Save(note); err != nil {
		log.Errorf("failed to save note: %v", err)
		return nil, apierror.InternalServerError
	}

	n.Metrics.RecordNoteCreated()
	return toNoteResponse(note, actor), nil
}

func (n *DefaultNoteService) UpdateNote(actor *entity.User, noteId int64, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	note, err := n.NoteRepo.UpdateOwned(noteId, actor.ID, func(note *entity.Note) {
		note.Title = req.Title
		note.Content = req.Content
		if req.IsFavorite != nil {
			note.IsFavorite = *req.IsFavorite
		}

		// The millisecond clock can tie with creation on fast updates;
		// updated must stay strictly ahead.
		now := utils.NowUTC()
		if now <= note.CreatedAt {
			now = note.CreatedAt + 1
		}
		note.UpdatedAt = now
	})
	if err != nil {
		log.Errorf("failed to update note: %v", err)
		return nil, apierror.InternalServerError
	}

	if note == nil {
		return nil, apierror.NotFoundError
	}
	return toNoteResponse(note, actor), nil
}

func (n *DefaultNoteService) DeleteNote(actor *entity.User, noteId int64) apierror.ErrorResponse {
	deleted, err := n.NoteRepo.DeleteOwned(noteId, actor.ID)
	if err != nil {
		log.Errorf("failed to delete note: %v", err)
		return apierror.InternalServerError
	}

	if !deleted {
		return apierror.NotFoundError
	}

	n.Metrics.RecordNoteDeleted()
	return nil
}

// SearchNotes matches the keyword case-insensitively against title and
// content. An empty or whitespace-only keyword matches nothing.
func (n *DefaultNoteService) SearchNotes(actor *entity.User, keyword string) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	if strings.TrimSpace(keyword) == "" {
		return []*contract.NoteResponse{}, nil
	}

	notes, err := n.NoteRepo.SearchByUser(actor.ID, keyword)
	if err != nil {
		log.Errorf("failed to search notes: %v", err)
		return nil, apierror.InternalServerError
	}
	return toNoteResponses(notes, actor), nil
}

func (n *DefaultNoteService) GetFavoriteNotes(actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.NoteRepo.FindFavoritesByUser(actor.ID)
	if err != nil {
		log.Errorf("failed to fetch favorite notes: %v", err)
		return nil, apierror.InternalServerError
	}
	return toNoteResponses(notes, actor), nil
}

func (n *DefaultNoteService) GetStats(actor *entity.User) (*contract.StatsResponse, apierror.ErrorResponse) {
	total, err := n.NoteRepo.CountByUser(actor.ID)
	if err != nil {
		log.Errorf("failed to count notes: %v", err)
		return nil, apierror.InternalServerError
	}

	favorites, err := n.NoteRepo.CountFavoritesByUser(actor.ID)
	if err != nil {
		log.Errorf("failed to count favorite notes: %v", err)
		return nil, apierror.InternalServerError
	}

	return &contract.StatsResponse{
		UserEmail:     actor.Email,
		TotalNotes:    total,
		FavoriteNotes: favorites,
	}, nil
}

// SendByEmail delivers the note to the recipient through the mail provider.
// The ownership-scoped lookup runs first, so the provider is never invoked
// for a note the actor does not own.
func (n *DefaultNoteService) SendByEmail(ctx context.Context, actor *entity.User, noteId int64, recipient string) (*contract.SendEmailResponse, apierror.ErrorResponse) {
	recipient = strings.TrimSpace(recipient)
	if err := n.Validate.Var(recipient, "required,email"); err != nil {
		return nil, apierror.NewSimple(400, "Parameter 'email' must be a valid email address")
	}

	note, err := n.NoteRepo.FindByIDAndUser(noteId, actor.ID)
	if err != nil {
		log.Errorf("failed to fetch note: %v", err)
		return nil, apierror.InternalServerError
	}

	if note == nil {
		return nil, apierror.NotFoundError
	}

	sendCtx, cancel := context.WithTimeout(ctx, mailSendTimeout)
	defer cancel()

	if err = n.Mail.SendNote(sendCtx, recipient, note.Title, note.Content); err != nil {
		log.Errorf("failed to send note %d to %s: %v", note.ID, recipient, err)
		n.Metrics.RecordEmailFailed()
		return nil, apierror.NewDeliveryError(err)
	}

	n.Metrics.RecordEmailSent()
	return &contract.SendEmailResponse{
		Message:   "Note sent successfully to " + recipient,
		NoteID:    note.ID,
		NoteTitle: note.Title,
		SentTo:    recipient,
	}, nil
}

func toNoteResponse(note *entity.Note, actor *entity.User) *contract.NoteResponse {
	return &contract.NoteResponse{
		ID:         note.ID,
		Title:      note.Title,
		Content:    note.Content,
		IsFavorite: note.IsFavorite,
		CreatedAt:  utils.FormatEpoch(note.CreatedAt),
		UpdatedAt:  utils.FormatEpoch(note.UpdatedAt),
		UserID:     note.UserID,
		UserEmail:  actor.Email,
	}
}

func toNoteResponses(notes []*entity.Note, actor *entity.User) []*contract.NoteResponse {
	resp := make([]*contract.NoteResponse, len(notes))
	for i, note := range notes {
		resp[i] = toNoteResponse(note, actor)
	}
	return resp
}
