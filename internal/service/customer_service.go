package service

import (
	"fmt"
	"strings"

	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/pkg/phone"

	"github.com/google/uuid"
)

type CustomerService interface {
	Create(req *model.Customer, actor Actor) error
	Update(id uuid.UUID, req *model.Customer, actor Actor) (*model.Customer, error)
	List(query string) ([]model.Customer, error)
	Get(id uuid.UUID) (*model.Customer, error)
}

type customerService struct {
	store       *Store
	phoneRegion string
}

func NewCustomerService(store *Store, phoneRegion string) CustomerService {
	return &customerService{store: store, phoneRegion: phoneRegion}
}

func (s *customerService) normalize(req *model.Customer) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return err
	}
	p, err := phone.Normalize(req.Phone, s.phoneRegion)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	req.Phone = p
	return nil
}

func (s *customerService) Create(req *model.Customer, actor Actor) error {
	if err := s.normalize(req); err != nil {
		return err
	}
	req.Stamp(actor.ID)
	return s.store.Customers.Create(req)
}

func (s *customerService) Update(id uuid.UUID, req *model.Customer, actor Actor) (*model.Customer, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.normalize(req); err != nil {
		return nil, err
	}
	existing.Name = req.Name
	existing.Phone = req.Phone
	existing.SpecialPricing = req.SpecialPricing
	existing.UpdatedBy = actor.ID
	if err := s.store.Customers.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *customerService) List(query string) ([]model.Customer, error) {
	return s.store.Customers.FindAll(query)
}

func (s *customerService) Get(id uuid.UUID) (*model.Customer, error) {
	c, err := s.store.Customers.FindByID(s.store.DB, id)
	if err != nil {
		return nil, notFound(err, reconcile.ErrCustomerNotFound)
	}
	return c, nil
}
