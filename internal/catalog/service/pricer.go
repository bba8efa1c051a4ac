package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/catalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Pricer struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewPricer(p Params) domain.Pricer {
	return &Pricer{
		db:   p.DB,
		log:  p.Log.Named("catalog.pricer"),
		repo: p.Repo,
	}
}

// PriceCart recomputes the cart from stored catalog data. Client-submitted
// prices never enter this path; the request carries only ids and quantities.
func (s *Pricer) PriceCart(ctx context.Context, tenantID snowflake.ID, items []domain.CartItem, shippingOptionID *snowflake.ID) (*domain.PricedCart, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.repo.FindProducts(ctx, s.db, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	cart := &domain.PricedCart{Lines: make([]domain.PricedLine, 0, len(items))}
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			// Missing and cross-tenant products are indistinguishable here:
			// the lookup is scoped to the tenant.
			return nil, domain.ErrProductNotFound
		}
		if !product.Active {
			return nil, domain.ErrProductInactive
		}
		currency := strings.ToUpper(strings.TrimSpace(product.Currency))
		if cart.Currency == "" {
			cart.Currency = currency
		} else if cart.Currency != currency {
			return nil, domain.ErrCurrencyMismatch
		}

		line := domain.PricedLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitAmount:  product.Amount,
			Quantity:    item.Quantity,
		}
		cart.Lines = append(cart.Lines, line)
		cart.ItemsTotal += line.Subtotal()
	}

	if shippingOptionID != nil && *shippingOptionID != 0 {
		option, err := s.repo.FindShippingOption(ctx, s.db, tenantID, *shippingOptionID)
		if err != nil {
			return nil, err
		}
		if option == nil {
			// An unknown or foreign shipping option is ignored rather than
			// rejected; the order simply carries no shipping line.
			s.log.Debug("ignoring unknown shipping option",
				zap.String("tenant_id", tenantID.String()),
				zap.String("shipping_option_id", shippingOptionID.String()),
			)
		} else {
			cart.ShippingOption = option
			if option.FreeOver != nil && cart.ItemsTotal >= *option.FreeOver {
				cart.ShippingTotal = 0
			} else {
				cart.ShippingTotal = option.Amount
			}
		}
	}

	return cart, nil
}
