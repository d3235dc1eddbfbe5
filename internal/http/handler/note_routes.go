package handler

import (
	"context"
	"net/http"
	"strconv"

	"notepad/internal/contract"
	"notepad/internal/domain/entity"
	"notepad/internal/utils"
	"notepad/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

// NoteService operations all take the acting *entity.User so ownership
// scoping happens in one place, without re-reading the request context.
type NoteService interface {
	GetAllNotes(actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	GetNoteByID(actor *entity.User, noteId int64) (*contract.NoteResponse, apierror.ErrorResponse)
	CreateNote(actor *entity.User, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	UpdateNote(actor *entity.User, noteId int64, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	DeleteNote(actor *entity.User, noteId int64) apierror.ErrorResponse
	SearchNotes(actor *entity.User, keyword string) ([]*contract.NoteResponse, apierror.ErrorResponse)
	GetFavoriteNotes(actor *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	GetStats(actor *entity.User) (*contract.StatsResponse, apierror.ErrorResponse)
	SendByEmail(ctx context.Context, actor *entity.User, noteId int64, recipient string) (*contract.SendEmailResponse, apierror.ErrorResponse)
}

type DefaultNoteRoute struct {
	NoteService NoteService
}

func NewNoteDefault(noteService NoteService) *DefaultNoteRoute {
	return &DefaultNoteRoute{NoteService: noteService}
}

func (n *DefaultNoteRoute) GetNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	notes, apierr := n.NoteService.GetAllNotes(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, notes)
}

func (n *DefaultNoteRoute) GetNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseNoteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int"))
	}

	note, apierr := n.NoteService.GetNoteByID(user, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) CreateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	var req contract.NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	note, apierr := n.NoteService.CreateNote(user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, note)
}

func (n *DefaultNoteRoute) UpdateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseNoteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int"))
	}

	var req contract.NoteRequest
	if err = c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	note, apierr := n.NoteService.UpdateNote(user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) DeleteNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseNoteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int"))
	}

	if apierr := n.NoteService.DeleteNote(user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (n *DefaultNoteRoute) SearchNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	notes, apierr := n.NoteService.SearchNotes(user, c.QueryParam("keyword"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, notes)
}

func (n *DefaultNoteRoute) GetFavorites(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	notes, apierr := n.NoteService.GetFavoriteNotes(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, notes)
}

func (n *DefaultNoteRoute) GetStats(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	stats, apierr := n.NoteService.GetStats(user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, stats)
}

func (n *DefaultNoteRoute) SendNoteByEmail(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, err := parseNoteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("id", "int"))
	}

	resp, apierr := n.NoteService.SendByEmail(c.Request().Context(), user, id, c.QueryParam("email"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func parseNoteID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
