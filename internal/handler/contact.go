package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contactdesk/contacts-api/internal/constants"
	"github.com/contactdesk/contacts-api/internal/dto"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/middleware"
	"github.com/contactdesk/contacts-api/internal/model"
	"github.com/contactdesk/contacts-api/internal/service"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
)

// ContactHandler exposes the contact book endpoints. Every operation is
// scoped to the authenticated owner.
type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// List returns the owner's contacts, paginated.
func (h *ContactHandler) List(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "ListContacts")

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	params := constants.ParsePaginationParams(c)

	contacts, total, err := h.contactService.List(ctx, params.Limit, params.Offset, owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildListResponse(total, params.Page, contacts))
}

// Get returns a single contact by id.
func (h *ContactHandler) Get(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "GetContact")

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	id, ok := contactID(c)
	if !ok {
		return
	}

	contact, err := h.contactService.Get(ctx, id, owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// Search returns contacts matching the exact-match filters.
func (h *ContactHandler) Search(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "SearchContacts")

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var filter dto.SearchFilter
	if !bindQuery(c, &filter) {
		return
	}

	params := constants.ParsePaginationParams(c)

	contacts, err := h.contactService.Search(ctx, params.Limit, params.Offset, &filter, owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contacts)
}

// Birthdays returns contacts whose birthday falls within the next week.
func (h *ContactHandler) Birthdays(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "UpcomingBirthdays")

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	params := constants.ParsePaginationParams(c)

	contacts, err := h.contactService.UpcomingBirthdays(ctx, params.Offset, params.Limit, owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contacts)
}

// Create adds a contact to the owner's book.
func (h *ContactHandler) Create(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "CreateContact")

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var req dto.ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.Create(ctx, &req, owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// Update replaces every stored field of the contact.
func (h *ContactHandler) Update(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "UpdateContact")

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	id, ok := contactID(c)
	if !ok {
		return
	}

	var req dto.ContactRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.Update(ctx, id, &req, owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// Delete removes the contact and returns its last stored state.
func (h *ContactHandler) Delete(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "DeleteContact")

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	id, ok := contactID(c)
	if !ok {
		return
	}

	contact, err := h.contactService.Delete(ctx, id, owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) owner(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized,
			constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrUnauthorized), nil))
		return nil, false
	}
	return user, true
}

func contactID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest,
			constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrInvalidInput), "id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}
