package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
)

// InsufficientStockError reports the first product whose available stock
// cannot cover a requested decrement. The whole operation it aborted has
// not written anything.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Required    int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product '%s': required %d, available %d",
		e.ProductName, e.Required, e.Available)
}

// SaleService records sales and maintains stock and cached totals. All
// stock mutations run inside a single transaction with row locks per
// product, so concurrent sales never lose decrements.
type SaleService struct {
	db          *gorm.DB
	saleRepo    *repository.SaleRepository
	productRepo *repository.ProductRepository
	stockPolicy models.StockPolicy
	weighted    bool
}

func NewSaleService(db *gorm.DB, saleRepo *repository.SaleRepository, productRepo *repository.ProductRepository, stockPolicy models.StockPolicy, weighted bool) *SaleService {
	return &SaleService{
		db:          db,
		saleRepo:    saleRepo,
		productRepo: productRepo,
		stockPolicy: stockPolicy,
		weighted:    weighted,
	}
}

func (s *SaleService) bundleUnitPrice(bundle *models.Bundle) decimal.Decimal {
	if s.weighted {
		return bundle.TotalPriceWeighted()
	}
	return bundle.TotalPrice()
}

// PlaceSale records a sale in one transaction: validates every line,
// snapshots unit prices, decrements stock per the configured policy and
// writes the aggregate total.
func (s *SaleService) PlaceSale(req models.CreateSaleRequest) (*models.Sale, error) {
	for _, line := range req.Lines {
		if err := line.Validate(); err != nil {
			return nil, err
		}
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	sale := models.Sale{
		Date:         date,
		CustomerName: req.CustomerName,
		TotalAmount:  decimal.Zero,
	}

	touched := make([]uuid.UUID, 0, len(req.Lines))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range req.Lines {
			item := models.SaleItem{
				SaleID:    sale.ID,
				ProductID: line.ProductID,
				BundleID:  line.BundleID,
				Quantity:  line.Quantity,
			}

			if line.ProductID != nil {
				product, err := repository.GetForUpdateTx(tx, *line.ProductID)
				if err != nil {
					return err
				}
				item.PriceAtSale = product.Price

				if err := s.decrementTx(tx, product, line.Quantity); err != nil {
					return err
				}
				touched = append(touched, product.ID)
			} else {
				bundle, err := repository.GetBundleTx(tx, *line.BundleID)
				if err != nil {
					return err
				}
				item.PriceAtSale = s.bundleUnitPrice(bundle)

				for _, bi := range bundle.Items {
					product, err := repository.GetForUpdateTx(tx, bi.ProductID)
					if err != nil {
						return err
					}
					if err := s.decrementTx(tx, product, bi.Quantity*line.Quantity); err != nil {
						return err
					}
					touched = append(touched, product.ID)
				}
			}

			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			total = total.Add(item.TotalPrice())
		}

		sale.TotalAmount = total.RoundBank(2)
		return tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
			Update("total_amount", sale.TotalAmount).Error
	})
	if err != nil {
		return nil, err
	}

	s.productRepo.InvalidateCaches(touched...)

	logrus.WithFields(logrus.Fields{
		"sale_id": sale.ID,
		"lines":   len(req.Lines),
		"total":   sale.TotalAmount.String(),
	}).Info("Sale placed")

	return s.saleRepo.GetByID(sale.ID)
}

// nextStock computes the stock remaining after a decrement under the given
// policy. Clamp floors at 0 and never fails; strict reports the shortfall.
func nextStock(product *models.Product, quantity int, policy models.StockPolicy) (int, error) {
	if policy == models.StockPolicyStrict && product.Stock < quantity {
		return product.Stock, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Required:    quantity,
			Available:   product.Stock,
		}
	}
	remaining := product.Stock - quantity
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// decrementTx applies one stock decrement under the service's policy.
// The product row is already locked by the caller.
func (s *SaleService) decrementTx(tx *gorm.DB, product *models.Product, quantity int) error {
	remaining, err := nextStock(product, quantity, s.stockPolicy)
	if err != nil {
		return err
	}
	product.Stock = remaining
	return repository.SetStockTx(tx, product.ID, remaining)
}

// AddBundleItem appends a stock-checked bundle line to an existing sale.
// Every constituent product is locked and validated before any decrement:
// the first shortage aborts the whole operation with no writes.
func (s *SaleService) AddBundleItem(saleID uuid.UUID, req models.AddSaleBundleItemRequest) (*models.SaleBundleItem, error) {
	var line models.SaleBundleItem

	touched := make([]uuid.UUID, 0, 4)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.Where("id = ?", saleID).First(&sale).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return repository.ErrSaleNotFound
			}
			return err
		}

		bundle, err := repository.GetBundleTx(tx, req.BundleID)
		if err != nil {
			return err
		}

		// lock and validate every constituent before touching stock
		products := make([]*models.Product, 0, len(bundle.Items))
		for _, bi := range bundle.Items {
			product, err := repository.GetForUpdateTx(tx, bi.ProductID)
			if err != nil {
				return err
			}
			required := bi.Quantity * req.Quantity
			if product.Stock < required {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Required:    required,
					Available:   product.Stock,
				}
			}
			products = append(products, product)
		}

		for i, bi := range bundle.Items {
			product := products[i]
			newStock := product.Stock - bi.Quantity*req.Quantity
			if err := repository.SetStockTx(tx, product.ID, newStock); err != nil {
				return err
			}
			touched = append(touched, product.ID)
		}

		line = models.SaleBundleItem{
			SaleID:      sale.ID,
			BundleID:    bundle.ID,
			Quantity:    req.Quantity,
			PriceAtSale: s.bundleUnitPrice(bundle),
		}
		if err := tx.Create(&line).Error; err != nil {
			return err
		}

		newTotal := sale.TotalAmount.Add(line.TotalPrice()).RoundBank(2)
		return tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
			Update("total_amount", newTotal).Error
	})
	if err != nil {
		return nil, err
	}

	s.productRepo.InvalidateCaches(touched...)

	logrus.WithFields(logrus.Fields{
		"sale_id":   saleID,
		"bundle_id": req.BundleID,
		"quantity":  req.Quantity,
	}).Info("Bundle line added to sale")

	line.Bundle = nil
	return &line, nil
}

// RecalculateTotal recomputes a sale's cached total from its line
// snapshots and persists it. Catalog prices are never consulted.
func (s *SaleService) RecalculateTotal(saleID uuid.UUID) (decimal.Decimal, error) {
	sale, err := s.saleRepo.GetByID(saleID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range sale.Items {
		total = total.Add(sale.Items[i].TotalPrice())
	}
	for i := range sale.BundleItems {
		total = total.Add(sale.BundleItems[i].TotalPrice())
	}
	total = total.RoundBank(2)

	err = s.db.Model(&models.Sale{}).Where("id = ?", saleID).
		Update("total_amount", total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// GetSale retrieves a sale with all lines preloaded
func (s *SaleService) GetSale(id uuid.UUID) (*models.Sale, error) {
	return s.saleRepo.GetByID(id)
}

// ListSales retrieves sales filtered by date range
func (s *SaleService) ListSales(filters models.SaleFilters, limit, offset int) ([]models.Sale, int64, error) {
	return s.saleRepo.GetAll(filters, limit, offset)
}
