package services

import (
	"context"
	"errors"
	"fmt"

	"dailyGraceAPI/internal/devotional"
	"dailyGraceAPI/internal/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnlockService spends grace points on content unlocks: devotional series,
// cosmetic themes, and one-off symbolic gifts.
type UnlockService struct {
	db           *pgxpool.Pool
	ledgerSvc    *LedgerService
	notifService *NotificationService
}

func NewUnlockService(db *pgxpool.Pool, ledgerSvc *LedgerService, notifService *NotificationService) *UnlockService {
	return &UnlockService{
		db:           db,
		ledgerSvc:    ledgerSvc,
		notifService: notifService,
	}
}

// GetStore returns the catalog grouped by item type together with the
// caller's point balance.
func (s *UnlockService) GetStore(ctx context.Context, clerkID string) (*devotional.StoreResponse, error) {
	l, err := s.ledgerSvc.GetLedgerByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, name, description, item_type, image_url, point_cost, is_active, created_at
	FROM store_items
	WHERE is_active = true
	ORDER BY point_cost ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	defer rows.Close()

	resp := &devotional.StoreResponse{
		Series:           []*devotional.StoreItem{},
		Themes:           []*devotional.StoreItem{},
		Gifts:            []*devotional.StoreItem{},
		UserPointBalance: l.TotalPoints,
	}

	for rows.Next() {
		var item devotional.StoreItem
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.ItemType,
			&item.ImageURL,
			&item.PointCost,
			&item.IsActive,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		switch item.ItemType {
		case devotional.ItemTypeSeries:
			resp.Series = append(resp.Series, &item)
		case devotional.ItemTypeTheme:
			resp.Themes = append(resp.Themes, &item)
		case devotional.ItemTypeGift:
			resp.Gifts = append(resp.Gifts, &item)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return resp, nil
}

// PurchaseStoreItem resolves a catalog item and dispatches on its type:
// series and themes become permanent unlocks, gifts are consumable spends.
func (s *UnlockService) PurchaseStoreItem(ctx context.Context, clerkID string, itemID string) (*ledger.UnlockResponse, error) {
	var itemType string
	var pointCost int
	var isActive bool
	err := s.db.QueryRow(ctx,
		`SELECT item_type, point_cost, is_active FROM store_items WHERE id = $1`,
		itemID).Scan(&itemType, &pointCost, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store item not found")
		}
		return nil, fmt.Errorf("failed to get store item: %w", err)
	}
	if !isActive {
		return nil, fmt.Errorf("store item is not available for purchase")
	}

	switch itemType {
	case devotional.ItemTypeSeries:
		return s.Unlock(ctx, clerkID, itemID, pointCost, ledger.CollectionSeries)
	case devotional.ItemTypeTheme:
		return s.Unlock(ctx, clerkID, itemID, pointCost, ledger.CollectionTheme)
	case devotional.ItemTypeGift:
		ok, err := s.PurchaseConsumable(ctx, clerkID, pointCost)
		if err != nil {
			return nil, err
		}
		l, err := s.ledgerSvc.GetLedgerByClerkID(ctx, clerkID)
		if err != nil {
			return nil, err
		}
		return &ledger.UnlockResponse{Unlocked: ok, NewBalance: l.TotalPoints}, nil
	default:
		return nil, fmt.Errorf("unknown item type %q", itemType)
	}
}

// Unlock adds itemID to the user's unlocked set, charging cost points.
// An already-unlocked item succeeds immediately without a second charge.
// The spend and the set append are one conditional UPDATE: they commit
// together or not at all, and an insufficient balance leaves the ledger
// untouched and returns Unlocked=false.
func (s *UnlockService) Unlock(ctx context.Context, clerkID string, itemID string, cost int, collection string) (*ledger.UnlockResponse, error) {
	if cost < 0 {
		return nil, ledger.ErrInvalidAmount
	}

	var column string
	switch collection {
	case ledger.CollectionSeries:
		column = "unlocked_series_ids"
	case ledger.CollectionTheme:
		column = "unlocked_theme_ids"
	default:
		return nil, fmt.Errorf("unknown unlock collection %q", collection)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	var unlocked []string
	query := fmt.Sprintf(`SELECT total_points, %s FROM user_preferences WHERE clerk_id = $1 FOR UPDATE`, column)
	err = tx.QueryRow(ctx, query, clerkID).Scan(&balance, &unlocked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	for _, id := range unlocked {
		if id == itemID {
			// Idempotent re-unlock: no charge.
			return &ledger.UnlockResponse{Unlocked: true, NewBalance: balance}, nil
		}
	}

	if balance < cost {
		return &ledger.UnlockResponse{Unlocked: false, NewBalance: balance}, nil
	}

	update := fmt.Sprintf(`
	UPDATE user_preferences
	SET total_points = total_points - $2, %s = array_append(%s, $3), updated_at = NOW()
	WHERE clerk_id = $1 AND total_points >= $2
	RETURNING total_points
	`, column, column)

	var newBalance int
	if err := tx.QueryRow(ctx, update, clerkID, cost, itemID).Scan(&newBalance); err != nil {
		return nil, fmt.Errorf("failed to unlock item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &ledger.UnlockResponse{Unlocked: true, NewBalance: newBalance}, nil
}

// SetActiveTheme switches the active cosmetic theme. A nil themeID clears
// it; a non-nil theme must already be unlocked.
func (s *UnlockService) SetActiveTheme(ctx context.Context, clerkID string, themeID *string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var unlocked []string
	err = tx.QueryRow(ctx,
		`SELECT unlocked_theme_ids FROM user_preferences WHERE clerk_id = $1 FOR UPDATE`,
		clerkID).Scan(&unlocked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrNotFound
		}
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	if themeID != nil {
		owned := false
		for _, id := range unlocked {
			if id == *themeID {
				owned = true
				break
			}
		}
		if !owned {
			return ledger.ErrNotUnlocked
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE user_preferences SET active_theme_id = $2, updated_at = NOW() WHERE clerk_id = $1`,
		clerkID, themeID)
	if err != nil {
		return fmt.Errorf("failed to set active theme: %w", err)
	}

	return tx.Commit(ctx)
}

// PurchaseConsumable spends points without recording an unlock (one-off
// symbolic gifts).
func (s *UnlockService) PurchaseConsumable(ctx context.Context, clerkID string, cost int) (bool, error) {
	return s.ledgerSvc.SpendPoints(ctx, clerkID, cost)
}
