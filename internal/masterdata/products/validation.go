package products

import (
	"errors"
	"strings"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return errors.New("product sku is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("product name is required")
	}
	if p.CostPrice != nil && *p.CostPrice < 0 {
		return errors.New("cost price cannot be negative")
	}
	if p.SalePrice != nil && *p.SalePrice < 0 {
		return errors.New("sale price cannot be negative")
	}
	if p.MRP != nil && p.SalePrice != nil && *p.MRP < *p.SalePrice {
		return errors.New("mrp cannot be below the sale price")
	}
	for _, u := range p.Units {
		if strings.TrimSpace(u.Label) == "" {
			return errors.New("unit label is required")
		}
		if u.Multiplier <= 0 {
			return errors.New("unit multiplier must be positive")
		}
	}
	return nil
}
