package service

import (
	"context"

	"github.com/contactdesk/contacts-api/internal/dto"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/model"
	"github.com/contactdesk/contacts-api/internal/repository"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
	"github.com/contactdesk/contacts-api/pkg/logger"
	"gorm.io/datatypes"
)

// ContactService maps between the HTTP shapes and the owner-scoped
// repository. Not-found and not-owned are the same ErrContactNotFound.
type ContactService struct {
	repoContact *repository.ContactRepository
}

func NewContactService(repo *repository.ContactRepository) *ContactService {
	return &ContactService{repoContact: repo}
}

func (s *ContactService) List(ctx context.Context, limit, offset int, owner *model.User) ([]dto.ContactResponse, int64, error) {
	ctx = ctxutil.WithScope(ctx, "service", "List")

	contacts, total, err := s.repoContact.List(ctx, limit, offset, owner)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return dto.NewContactResponses(contacts), total, nil
}

func (s *ContactService) Get(ctx context.Context, contactID uint, owner *model.User) (*dto.ContactResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "Get")

	contact, err := s.repoContact.Get(ctx, contactID, owner)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if contact == nil {
		return nil, apperrors.ErrContactNotFound
	}
	return dto.NewContactResponse(contact), nil
}

func (s *ContactService) Search(ctx context.Context, limit, offset int, filter *dto.SearchFilter, owner *model.User) ([]dto.ContactResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "Search")

	contacts, err := s.repoContact.Search(ctx, limit, offset, filter.FirstName, filter.LastName, filter.Email, owner)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return dto.NewContactResponses(contacts), nil
}

func (s *ContactService) UpcomingBirthdays(ctx context.Context, skip, limit int, owner *model.User) ([]dto.ContactResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "UpcomingBirthdays")

	contacts, err := s.repoContact.UpcomingBirthdays(ctx, skip, limit, owner)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return dto.NewContactResponses(contacts), nil
}

func (s *ContactService) Create(ctx context.Context, req *dto.ContactRequest, owner *model.User) (*dto.ContactResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "Create")

	contact := contactFromRequest(req)
	if err := s.repoContact.Create(ctx, contact, owner); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Contact created").
		Uint("owner_id", owner.ID).
		Uint("contact_id", contact.ID).
		Log()

	return dto.NewContactResponse(contact), nil
}

func (s *ContactService) Update(ctx context.Context, contactID uint, req *dto.ContactRequest, owner *model.User) (*dto.ContactResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "Update")

	contact, err := s.repoContact.Update(ctx, contactID, contactFromRequest(req), owner)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if contact == nil {
		return nil, apperrors.ErrContactNotFound
	}
	return dto.NewContactResponse(contact), nil
}

func (s *ContactService) Delete(ctx context.Context, contactID uint, owner *model.User) (*dto.ContactResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "Delete")

	contact, err := s.repoContact.Delete(ctx, contactID, owner)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if contact == nil {
		return nil, apperrors.ErrContactNotFound
	}
	return dto.NewContactResponse(contact), nil
}

func contactFromRequest(req *dto.ContactRequest) *model.Contact {
	return &model.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Mobile:    req.Mobile,
		BirthDate: datatypes.Date(req.BirthDateValue()),
		Note:      req.Note,
	}
}
