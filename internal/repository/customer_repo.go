package repository

import (
	"strings"

	"go-bookstore-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(customer *model.Customer) error
	Update(customer *model.Customer) error
	FindAll(query string) ([]model.Customer, error)
	FindByID(tx *gorm.DB, id uuid.UUID) (*model.Customer, error)
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(customer *model.Customer) error {
	return r.db.Create(customer).Error
}

func (r *customerRepo) Update(customer *model.Customer) error {
	return r.db.Model(&model.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]interface{}{
			"name":            customer.Name,
			"phone":           customer.Phone,
			"special_pricing": customer.SpecialPricing,
			"updated_by":      customer.UpdatedBy,
		}).Error
}

func (r *customerRepo) FindAll(query string) ([]model.Customer, error) {
	var customers []model.Customer
	q := r.db.Order("name ASC")
	if query = strings.TrimSpace(strings.ToLower(query)); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+query+"%")
	}
	err := q.Find(&customers).Error
	return customers, err
}

func (r *customerRepo) FindByID(tx *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := tx.First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
