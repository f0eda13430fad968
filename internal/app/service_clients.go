package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/files"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/search"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/util"
)

const maxContractSize = 10 << 20 // 10 MiB

type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ClientServiceInput struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	PriceCents   int64      `json:"priceCents"`
	BillingCycle string     `json:"billingCycle"`
	StartsOn     *time.Time `json:"startsOn"`
	Active       bool       `json:"active"`
}

func (s *Service) ListClients(ctx context.Context) ([]store.Client, error) {
	return s.store.ListClients(ctx)
}

func (s *Service) GetClient(ctx context.Context, clientID string) (store.Client, []store.ClientService, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return store.Client{}, nil, err
	}
	services, err := s.store.ListClientServices(ctx, clientID)
	if err != nil {
		return store.Client{}, nil, err
	}
	return client, services, nil
}

func (s *Service) CreateClient(ctx context.Context, input ClientInput) (store.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Client{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	client := store.Client{
		ID:      util.NewID("cli"),
		Name:    name,
		Email:   strings.TrimSpace(strings.ToLower(input.Email)),
		Phone:   input.Phone,
		Address: input.Address,
	}
	if err := s.store.InsertClient(ctx, client); err != nil {
		return store.Client{}, err
	}
	s.indexClient(client)
	return client, nil
}

func (s *Service) UpdateClient(ctx context.Context, clientID string, input ClientInput) (store.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Client{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return store.Client{}, err
	}
	client := store.Client{
		ID:      clientID,
		Name:    name,
		Email:   strings.TrimSpace(strings.ToLower(input.Email)),
		Phone:   input.Phone,
		Address: input.Address,
	}
	if err := s.store.UpdateClient(ctx, client); err != nil {
		return store.Client{}, err
	}
	s.indexClient(client)
	return s.store.GetClient(ctx, clientID)
}

func (s *Service) DeleteClient(ctx context.Context, session Session, clientID string) error {
	if !session.IsAdmin {
		return errForbidden
	}
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return err
	}
	if err := s.store.DeleteClient(ctx, clientID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteClient(clientID)
	}
	return nil
}

func (s *Service) CreateClientService(ctx context.Context, clientID string, input ClientServiceInput) (store.ClientService, error) {
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return store.ClientService{}, err
	}
	service, err := clientServiceFromInput(input)
	if err != nil {
		return store.ClientService{}, err
	}
	service.ID = util.NewID("svc")
	service.ClientID = clientID
	if err := s.store.InsertClientService(ctx, service); err != nil {
		return store.ClientService{}, err
	}
	return s.store.GetClientService(ctx, service.ID)
}

func (s *Service) UpdateClientService(ctx context.Context, serviceID string, input ClientServiceInput) (store.ClientService, error) {
	existing, err := s.store.GetClientService(ctx, serviceID)
	if err != nil {
		return store.ClientService{}, err
	}
	service, err := clientServiceFromInput(input)
	if err != nil {
		return store.ClientService{}, err
	}
	service.ID = serviceID
	service.ClientID = existing.ClientID
	if err := s.store.UpdateClientService(ctx, service); err != nil {
		return store.ClientService{}, err
	}
	return s.store.GetClientService(ctx, serviceID)
}

func clientServiceFromInput(input ClientServiceInput) (store.ClientService, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.ClientService{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	cycle := input.BillingCycle
	if cycle == "" {
		cycle = "monthly"
	}
	if _, ok := allowedBillingCycles[cycle]; !ok {
		return store.ClientService{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown billing cycle %q", cycle), nil)
	}
	return store.ClientService{
		Name:         name,
		Description:  input.Description,
		PriceCents:   input.PriceCents,
		BillingCycle: cycle,
		StartsOn:     input.StartsOn,
		Active:       input.Active,
	}, nil
}

func (s *Service) DeleteClientService(ctx context.Context, session Session, serviceID string) error {
	if !session.IsAdmin {
		return errForbidden
	}
	service, err := s.store.GetClientService(ctx, serviceID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteClientService(ctx, serviceID); err != nil {
		return err
	}
	if s.files != nil && service.ContractObjectKey != "" {
		// The row is gone; a stray object is tolerable.
		if err := s.files.Delete(ctx, service.ContractObjectKey); err != nil {
			log.Printf("delete contract object %s: %v", service.ContractObjectKey, err)
		}
	}
	return nil
}

// UploadContract stores the contract document for a service and records its
// object key. Re-uploading replaces the previous version.
func (s *Service) UploadContract(ctx context.Context, serviceID, filename, contentType string, r io.Reader, size int64) (store.ClientService, error) {
	if s.files == nil {
		return store.ClientService{}, domainError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "File storage is not configured", nil)
	}
	if size > maxContractSize {
		return store.ClientService{}, domainError(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Contract file exceeds 10 MiB", nil)
	}
	service, err := s.store.GetClientService(ctx, serviceID)
	if err != nil {
		return store.ClientService{}, err
	}

	key := files.ContractKey(serviceID, filename)
	if err := s.files.Upload(ctx, key, r, size, contentType); err != nil {
		return store.ClientService{}, err
	}
	if err := s.store.SetServiceContract(ctx, serviceID, key, filename); err != nil {
		return store.ClientService{}, err
	}
	if service.ContractObjectKey != "" && service.ContractObjectKey != key {
		_ = s.files.Delete(ctx, service.ContractObjectKey)
	}
	return s.store.GetClientService(ctx, serviceID)
}

// DownloadContract opens the stored contract for streaming to the client.
func (s *Service) DownloadContract(ctx context.Context, serviceID string) (io.ReadCloser, string, string, error) {
	if s.files == nil {
		return nil, "", "", domainError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "File storage is not configured", nil)
	}
	service, err := s.store.GetClientService(ctx, serviceID)
	if err != nil {
		return nil, "", "", err
	}
	if service.ContractObjectKey == "" {
		return nil, "", "", domainError(http.StatusNotFound, "NOT_FOUND", "No contract uploaded", nil)
	}
	reader, contentType, err := s.files.Download(ctx, service.ContractObjectKey)
	if err != nil {
		return nil, "", "", err
	}
	return reader, service.ContractFileName, contentType, nil
}

func (s *Service) indexClient(client store.Client) {
	if s.search == nil {
		return
	}
	s.search.IndexClient(search.ClientRecord{
		ID:      client.ID,
		Name:    client.Name,
		Email:   client.Email,
		Address: client.Address,
	})
}
