package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lodge_backend/internal/models"
	"lodge_backend/internal/repositories"
	"lodge_backend/pkg/utils"
)

// --- Custom Service Errors for Client ---
var (
	ErrClientNotFound   = errors.New("client not found")
	ErrCPFExists        = errors.New("a client with this CPF already exists")
	ErrClientValidation = errors.New("client data validation error")
	ErrClientInUse      = errors.New("client cannot be deleted while reservations reference them")
)

// --- Client DTOs ---
type CreateClientRequest struct {
	FullName string   `json:"full_name" binding:"required,max=255"`
	CPF      *string  `json:"cpf" binding:"omitempty,max=14"`
	Phone    string   `json:"phone" binding:"max=20"`
	Email    *string  `json:"email" binding:"omitempty,email"`
	Address  *string  `json:"address"`
	Notes    *string  `json:"notes"`
	Tags     []string `json:"tags" binding:"omitempty,dive,max=50"`
}

type UpdateClientRequest struct {
	FullName *string                 `json:"full_name" binding:"omitempty,max=255"`
	CPF      models.Optional[string] `json:"cpf"`
	Phone    *string                 `json:"phone" binding:"omitempty,max=20"`
	Email    models.Optional[string] `json:"email"`
	Address  models.Optional[string] `json:"address"`
	Notes    models.Optional[string] `json:"notes"`
	Tags     *[]string               `json:"tags"`
}

// --- ClientService Interface ---
type ClientService interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error)
	GetClientByID(ctx context.Context, clientID int64) (*models.Client, error)
	GetClients(ctx context.Context, page, pageSize int, searchTerm *string) ([]models.Client, int, error)
	UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error)
	DeleteClient(ctx context.Context, clientID int64) error
}

// --- clientService Implementation ---
type clientService struct {
	clientRepo repositories.ClientRepository
	db         *sql.DB
	clock      Clock
}

// NewClientService creates a new instance of ClientService.
func NewClientService(repo repositories.ClientRepository, db *sql.DB, clock Clock) ClientService {
	return &clientService{
		clientRepo: repo,
		db:         db,
		clock:      clock,
	}
}

func cleanTags(tags []string) models.StringList {
	cleaned := models.StringList{}
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

func (s *clientService) CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, newValidationError(ErrClientValidation, "full_name", "full name cannot be empty")
	}

	now := s.clock.Now()
	client := &models.Client{
		FullName:  fullName,
		CPF:       utils.NullableTrim(req.CPF),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     utils.NullableTrim(req.Email),
		Address:   utils.NullableTrim(req.Address),
		Notes:     utils.NullableTrim(req.Notes),
		Tags:      cleanTags(req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.clientRepo.CreateClient(ctx, s.db, client); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCPFExists
		}
		return nil, fmt.Errorf("failed to create client in repository: %w", err)
	}
	return client, nil
}

func (s *clientService) GetClientByID(ctx context.Context, clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(ctx, s.db, clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}
	return client, nil
}

func (s *clientService) GetClients(ctx context.Context, page, pageSize int, searchTerm *string) ([]models.Client, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	clients, totalCount, err := s.clientRepo.GetClients(ctx, s.db, page, pageSize, utils.NullableTrim(searchTerm))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get clients: %w", err)
	}
	return clients, totalCount, nil
}

func (s *clientService) UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(ctx, s.db, clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client for update: %w", err)
	}

	if req.FullName != nil {
		fullName := strings.TrimSpace(*req.FullName)
		if fullName == "" {
			return nil, newValidationError(ErrClientValidation, "full_name", "full name cannot be empty if provided")
		}
		client.FullName = fullName
	}
	if req.CPF.Set {
		client.CPF = utils.NullableTrim(req.CPF.Value)
	}
	if req.Phone != nil {
		client.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email.Set {
		client.Email = utils.NullableTrim(req.Email.Value)
		if client.Email != nil && !utils.IsValidEmail(*client.Email) {
			return nil, newValidationError(ErrClientValidation, "email", "email format is invalid")
		}
	}
	if req.Address.Set {
		client.Address = utils.NullableTrim(req.Address.Value)
	}
	if req.Notes.Set {
		client.Notes = utils.NullableTrim(req.Notes.Value)
	}
	if req.Tags != nil {
		client.Tags = cleanTags(*req.Tags)
	}
	client.UpdatedAt = s.clock.Now()

	if err := s.clientRepo.UpdateClient(ctx, s.db, client); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCPFExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to update client in repository: %w", err)
	}
	return client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, clientID int64) error {
	if err := s.clientRepo.DeleteClient(ctx, s.db, clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrClientNotFound
		}
		if errors.Is(err, repositories.ErrForeignKey) {
			return ErrClientInUse
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}
