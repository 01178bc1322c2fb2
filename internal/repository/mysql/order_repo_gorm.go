package mysql

import (
	"context"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"order-service/internal/domain"
	"order-service/internal/repository"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

// mysqlDuplicateEntry is the server error for a unique index violation.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *gomysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", domain.ErrOrderNumberConflict, order.OrderNumber)
		}
		return err
	}
	return nil
}

// Update rewrites the order row and its item set inside one transaction. The
// row is locked first so two writers on the same order are serialized, and
// items removed from the aggregate are deleted before the save.
func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, "id = ?", order.ID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", domain.ErrNotFound, order.ID)
			}
			return err
		}

		keep := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			keep = append(keep, item.ID.String())
		}
		del := tx.Where("order_id = ?", order.ID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}

		err = tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
		if err != nil && isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", domain.ErrOrderNumberConflict, order.OrderNumber)
		}
		return err
	})
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByUserID(ctx context.Context, userID uuid.UUID, opts repository.ListOptions) ([]domain.Order, repository.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	return r.page(q, opts.Page, opts.Limit)
}

func (r *orderRepo) Search(ctx context.Context, opts repository.SearchOptions) ([]domain.Order, repository.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if opts.OrderNumber != "" {
		q = q.Where("order_number = ?", opts.OrderNumber)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.From != nil {
		q = q.Where("created_at >= ?", *opts.From)
	}
	if opts.To != nil {
		q = q.Where("created_at <= ?", *opts.To)
	}
	return r.page(q, opts.Page, opts.Limit)
}

func (r *orderRepo) page(q *gorm.DB, page, limit int) ([]domain.Order, repository.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, repository.Pagination{}, err
	}

	var out []domain.Order
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&out).Error
	if err != nil {
		return nil, repository.Pagination{}, err
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	return out, repository.Pagination{Total: total, Page: page, Pages: pages, Limit: limit}, nil
}

func (r *orderRepo) Statistics(ctx context.Context, userID *uuid.UUID) (*repository.OrderStats, error) {
	scope := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Order{})
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}
		return q
	}

	stats := &repository.OrderStats{
		TotalRevenue: decimal.Zero,
		StatusCounts: make(map[domain.OrderStatus]int64),
	}

	if err := scope().Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	// Revenue only counts delivered orders.
	row := scope().Where("status = ?", domain.StatusDelivered).
		Select("COALESCE(SUM(total_amount), 0)").Row()
	if err := row.Scan(&stats.TotalRevenue); err != nil {
		return nil, err
	}

	rows, err := scope().Select("status, COUNT(*)").Group("status").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.StatusCounts[status] = count
	}
	return stats, rows.Err()
}
