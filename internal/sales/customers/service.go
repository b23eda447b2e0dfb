package customers

import (
	"context"
	"errors"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	existing, err := s.repo.GetByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing customer: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: customer code already exists", ErrAlreadyExists)
	}

	customer := Customer{
		Code:         req.Code,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		GSTIN:        req.GSTIN,
		CreditLimit:  req.CreditLimit,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		IsActive:     true,
		Notes:        req.Notes,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, customer)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	customer.ID = id
	return &customer, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Email != nil {
		updated.Email = req.Email
	}
	if req.Phone != nil {
		updated.Phone = req.Phone
	}
	if req.GSTIN != nil {
		updated.GSTIN = req.GSTIN
	}
	if req.CreditLimit != nil {
		updated.CreditLimit = *req.CreditLimit
	}
	if req.AddressLine1 != nil {
		updated.AddressLine1 = req.AddressLine1
	}
	if req.AddressLine2 != nil {
		updated.AddressLine2 = req.AddressLine2
	}
	if req.City != nil {
		updated.City = req.City
	}
	if req.State != nil {
		updated.State = req.State
	}
	if req.PostalCode != nil {
		updated.PostalCode = req.PostalCode
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updated)
	})
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) GenerateCode(ctx context.Context) (string, error) {
	return s.repo.GenerateCode(ctx)
}
