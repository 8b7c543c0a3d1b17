package dto

import "github.com/vladislavdragonenkov/pom/internal/domain"

// ProductDTO — представление товара в HTTP API.
type ProductDTO struct {
	ProductID     int64   `json:"productId"`
	Name          string  `json:"name"`
	Price         Decimal `json:"price"`
	TaxPercentage Decimal `json:"taxPercentage"`
}

// ProductFromDomain строит представление товара.
func ProductFromDomain(p domain.Product) ProductDTO {
	return ProductDTO{
		ProductID:     p.ID,
		Name:          p.Name,
		Price:         NewDecimal(p.Price),
		TaxPercentage: NewDecimal(p.TaxPercentage),
	}
}

// ProductsFromDomain строит представления списка товаров с сохранением порядка.
func ProductsFromDomain(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, ProductFromDomain(p))
	}
	return out
}

// ToDomain переводит входное представление в доменный товар.
func (d ProductDTO) ToDomain() domain.Product {
	return domain.Product{
		ID:            d.ProductID,
		Name:          d.Name,
		Price:         d.Price.Decimal,
		TaxPercentage: d.TaxPercentage.Decimal,
	}
}
