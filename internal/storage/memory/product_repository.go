package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

type productRepository struct {
	access
}

func (r *productRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	var product domain.Product
	err := r.read(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		product = p
		return nil
	})
	return product, err
}

func (r *productRepository) GetByName(ctx context.Context, name string) (domain.Product, error) {
	var product domain.Product
	err := r.read(ctx, func(st *state) error {
		p, ok := findProductByName(st, name, 0)
		if !ok {
			return domain.ErrProductNotFound
		}
		product = p
		return nil
	})
	return product, err
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	var result []domain.Product
	err := r.read(ctx, func(st *state) error {
		result = make([]domain.Product, 0, len(st.products))
		for _, p := range st.products {
			result = append(result, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	err := r.write(ctx, func(st *state) error {
		if _, ok := findProductByName(st, product.Name, 0); ok {
			return fmt.Errorf("%w: name %q", domain.ErrDuplicateProduct, product.Name)
		}
		product.ID = st.nextProductID
		st.nextProductID++
		st.products[product.ID] = product
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return domain.ErrProductNotFound
		}
		if _, ok := findProductByName(st, product.Name, product.ID); ok {
			return fmt.Errorf("%w: name %q", domain.ErrDuplicateProduct, product.Name)
		}
		st.products[product.ID] = product
		return nil
	})
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.ErrProductNotFound
		}
		for _, order := range st.orders {
			if order.ReferencesProduct(id) {
				return domain.ErrProductInUse
			}
		}
		delete(st.products, id)
		return nil
	})
}

// findProductByName ищет товар с тем же именем, пропуская exceptID.
func findProductByName(st *state, name string, exceptID int64) (domain.Product, bool) {
	for id, p := range st.products {
		if id != exceptID && domain.SameName(p.Name, name) {
			return p, true
		}
	}
	return domain.Product{}, false
}

var _ domain.ProductRepository = (*productRepository)(nil)
