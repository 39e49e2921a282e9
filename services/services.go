package services

import (
	"context"
	"errors"
	"time"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/realtime"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor is the authenticated caller of a service operation. The zero value is
// the system itself (webhooks and jobs).
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type OrderBroadcaster interface {
	BroadcastOrder(eventType string, order *models.Order)
}

var Broadcaster OrderBroadcaster = realtime.Default

var now = time.Now

func db(ctx context.Context) *gorm.DB {
	return initializers.DB.WithContext(ctx)
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFoundOr maps gorm's record-not-found to a not-found AppError and anything
// else to internal.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound("%s not found", what)
	}
	return utils.Internal("Failed to load "+what, err)
}

// wrapTxError keeps AppErrors raised inside a transaction and wraps the rest.
func wrapTxError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.Internal(message, err)
}

type Page struct {
	Page  int
	Limit int
}

// Normalize defaults to the first page of 10 and caps the limit at 100.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
