package repositories

import (
	"context"
	"fmt"
	"strings"

	"lodge_backend/internal/models"
)

// ClientRepository defines the interface for client-related database operations.
type ClientRepository interface {
	CreateClient(ctx context.Context, ex SQLExecutor, client *models.Client) (int64, error)
	GetClientByID(ctx context.Context, ex SQLExecutor, id int64) (*models.Client, error)
	GetClients(ctx context.Context, ex SQLExecutor, page, pageSize int, searchTerm *string) ([]models.Client, int, error) // Clients, total count, error
	UpdateClient(ctx context.Context, ex SQLExecutor, client *models.Client) error
	DeleteClient(ctx context.Context, ex SQLExecutor, id int64) error
}

type clientRepository struct{}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository() ClientRepository {
	return &clientRepository{}
}

const selectClientFields = `c.id, c.full_name, c.cpf, c.phone, c.email, c.address, c.notes, c.tags, c.created_at, c.updated_at`

func clientScanDest(client *models.Client) []interface{} {
	return []interface{}{
		&client.ID, &client.FullName, &client.CPF, &client.Phone, &client.Email,
		&client.Address, &client.Notes, &client.Tags, &client.CreatedAt, &client.UpdatedAt,
	}
}

// CreateClient inserts a new client into the database.
func (r *clientRepository) CreateClient(ctx context.Context, ex SQLExecutor, client *models.Client) (int64, error) {
	query := `INSERT INTO clients (full_name, cpf, phone, email, address, notes, tags, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	if client.Tags == nil {
		client.Tags = models.StringList{}
	}
	err := ex.QueryRowContext(ctx, query,
		client.FullName, client.CPF, client.Phone, client.Email, client.Address,
		client.Notes, client.Tags, client.CreatedAt, client.UpdatedAt,
	).Scan(&client.ID)
	if err != nil {
		return 0, classifyError(err, "creating client")
	}
	return client.ID, nil
}

// GetClientByID retrieves a client by their ID.
func (r *clientRepository) GetClientByID(ctx context.Context, ex SQLExecutor, id int64) (*models.Client, error) {
	client := &models.Client{}
	query := "SELECT " + selectClientFields + " FROM clients c WHERE c.id = $1"
	if err := ex.QueryRowContext(ctx, query, id).Scan(clientScanDest(client)...); err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting client by ID %d", id))
	}
	return client, nil
}

// GetClients retrieves a list of clients with pagination and optional search.
func (r *clientRepository) GetClients(ctx context.Context, ex SQLExecutor, page, pageSize int, searchTerm *string) ([]models.Client, int, error) {
	clients := []models.Client{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectClientFields + ", COUNT(*) OVER() AS total_count FROM clients c")

	var args []interface{}
	if searchTerm != nil && *searchTerm != "" {
		args = append(args, "%"+strings.ToLower(*searchTerm)+"%")
		p := placeholder(len(args))
		queryBuilder.WriteString(fmt.Sprintf(
			" WHERE (LOWER(c.full_name) LIKE %s OR LOWER(COALESCE(c.cpf, '')) LIKE %s OR LOWER(c.phone) LIKE %s OR LOWER(COALESCE(c.email, '')) LIKE %s)",
			p, p, p, p))
	}

	queryBuilder.WriteString(" ORDER BY c.full_name ASC")

	if pageSize > 0 {
		args = append(args, pageSize)
		queryBuilder.WriteString(" LIMIT " + placeholder(len(args)))
		if page > 0 {
			args = append(args, (page-1)*pageSize)
			queryBuilder.WriteString(" OFFSET " + placeholder(len(args)))
		}
	}

	rows, err := ex.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, classifyError(err, "querying clients")
	}
	defer rows.Close()

	for rows.Next() {
		var client models.Client
		dest := append(clientScanDest(&client), &totalCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, classifyError(err, "scanning client")
		}
		clients = append(clients, client)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, classifyError(err, "iterating client rows")
	}
	return clients, totalCount, nil
}

// UpdateClient updates an existing client in the database.
func (r *clientRepository) UpdateClient(ctx context.Context, ex SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET
	            full_name = $1, cpf = $2, phone = $3, email = $4, address = $5, notes = $6, tags = $7, updated_at = $8
	          WHERE id = $9`

	result, err := ex.ExecContext(ctx, query,
		client.FullName, client.CPF, client.Phone, client.Email, client.Address,
		client.Notes, client.Tags, client.UpdatedAt, client.ID,
	)
	if err != nil {
		return classifyError(err, fmt.Sprintf("updating client ID %d", client.ID))
	}
	return affectedOne(result, fmt.Sprintf("updating client ID %d", client.ID))
}

// DeleteClient removes a client from the database. Clients referenced by
// reservations are protected by the foreign key and yield ErrForeignKey.
func (r *clientRepository) DeleteClient(ctx context.Context, ex SQLExecutor, id int64) error {
	result, err := ex.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting client ID %d", id))
	}
	return affectedOne(result, fmt.Sprintf("deleting client ID %d", id))
}
