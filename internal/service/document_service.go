package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

var (
	ErrDocumentNotFound   = newError(ErrNotFound, "Document not found")
	ErrInvalidDocName     = badRequest("Document name must be 2-100 characters")
	ErrInvalidDocumentURL = badRequest("Document url must be an http or https link")
)

type DocumentService struct {
	docs repository.DocumentRepository
}

func NewDocumentService(docs repository.DocumentRepository) *DocumentService {
	return &DocumentService{docs: docs}
}

func (s *DocumentService) Create(ctx context.Context, projectID, name, link string) (domain.Document, error) {
	name, link, err := validateDocument(name, link)
	if err != nil {
		return domain.Document{}, err
	}
	now := time.Now().UTC()
	doc := domain.Document{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		URL:       link,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return domain.Document{}, ErrProjectNotFound
		}
		return domain.Document{}, err
	}
	return doc, nil
}

func (s *DocumentService) Update(ctx context.Context, id, name, link string) (domain.Document, error) {
	name, link, err := validateDocument(name, link)
	if err != nil {
		return domain.Document{}, err
	}
	doc, err := s.docs.Update(ctx, id, name, link)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Document{}, ErrDocumentNotFound
		}
		return domain.Document{}, err
	}
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, projectID, id string) error {
	if err := s.docs.Delete(ctx, projectID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	return nil
}

func (s *DocumentService) List(ctx context.Context, projectID string) ([]domain.Document, error) {
	return s.docs.ListByProject(ctx, projectID)
}

func validateDocument(name, link string) (string, string, error) {
	name = strings.TrimSpace(name)
	link = strings.TrimSpace(link)
	if !lengthBetween(name, 2, 100) {
		return "", "", ErrInvalidDocName
	}
	if !isHTTPURL(link) {
		return "", "", ErrInvalidDocumentURL
	}
	return name, link, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
