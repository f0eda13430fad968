package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, address, created_at, updated_at
		FROM clients
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	items := make([]Client, 0)
	for rows.Next() {
		var item Client
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Phone, &item.Address, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetClient(ctx context.Context, clientID string) (Client, error) {
	var item Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address, created_at, updated_at
		FROM clients
		WHERE id=$1
	`, clientID).Scan(&item.ID, &item.Name, &item.Email, &item.Phone, &item.Address, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Client{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertClient(ctx context.Context, client Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
	`, client.ID, client.Name, client.Email, client.Phone, client.Address)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateClient(ctx context.Context, client Client) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE clients SET name=$2, email=$3, phone=$4, address=$5, updated_at=NOW()
		WHERE id=$1
	`, client.ID, client.Name, client.Email, client.Phone, client.Address)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteClient(ctx context.Context, clientID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, clientID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

const clientServiceColumns = `id, client_id, name, description, price_cents, billing_cycle, starts_on, active, contract_object_key, contract_file_name, created_at, updated_at`

func (s *PostgresStore) ListClientServices(ctx context.Context, clientID string) ([]ClientService, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clientServiceColumns+`
		FROM client_services
		WHERE client_id=$1
		ORDER BY name ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client services: %w", err)
	}
	defer rows.Close()

	items := make([]ClientService, 0)
	for rows.Next() {
		var item ClientService
		if err := rows.Scan(
			&item.ID,
			&item.ClientID,
			&item.Name,
			&item.Description,
			&item.PriceCents,
			&item.BillingCycle,
			&item.StartsOn,
			&item.Active,
			&item.ContractObjectKey,
			&item.ContractFileName,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan client service: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client services: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetClientService(ctx context.Context, serviceID string) (ClientService, error) {
	var item ClientService
	err := s.db.QueryRowContext(ctx, `
		SELECT `+clientServiceColumns+`
		FROM client_services
		WHERE id=$1
	`, serviceID).Scan(
		&item.ID,
		&item.ClientID,
		&item.Name,
		&item.Description,
		&item.PriceCents,
		&item.BillingCycle,
		&item.StartsOn,
		&item.Active,
		&item.ContractObjectKey,
		&item.ContractFileName,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return ClientService{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertClientService(ctx context.Context, service ClientService) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_services (id, client_id, name, description, price_cents, billing_cycle, starts_on, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, service.ID, service.ClientID, service.Name, service.Description, service.PriceCents, service.BillingCycle, service.StartsOn, service.Active)
	if err != nil {
		return fmt.Errorf("insert client service: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateClientService(ctx context.Context, service ClientService) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE client_services
		SET name=$2, description=$3, price_cents=$4, billing_cycle=$5, starts_on=$6, active=$7, updated_at=NOW()
		WHERE id=$1
	`, service.ID, service.Name, service.Description, service.PriceCents, service.BillingCycle, service.StartsOn, service.Active)
	if err != nil {
		return fmt.Errorf("update client service: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetServiceContract(ctx context.Context, serviceID, objectKey, fileName string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE client_services
		SET contract_object_key=$2, contract_file_name=$3, updated_at=NOW()
		WHERE id=$1
	`, serviceID, objectKey, fileName)
	if err != nil {
		return fmt.Errorf("set service contract: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteClientService(ctx context.Context, serviceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_services WHERE id=$1`, serviceID)
	if err != nil {
		return fmt.Errorf("delete client service: %w", err)
	}
	return nil
}
