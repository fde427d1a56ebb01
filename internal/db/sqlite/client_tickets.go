package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iamwavecut/gatebot/internal/db"
)

func (c *sqliteClient) ListGroups(ctx context.Context) ([]db.Group, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var groups []db.Group
	err := c.db.SelectContext(ctx, &groups, `SELECT group_id, group_name FROM groups_list ORDER BY group_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (c *sqliteClient) ListTicketCategories(ctx context.Context) ([]db.TicketCategory, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var categories []db.TicketCategory
	err := c.db.SelectContext(ctx, &categories, `SELECT id, category_name, description FROM ticket_category ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket categories: %w", err)
	}
	return categories, nil
}

func (c *sqliteClient) GetTicketCategory(ctx context.Context, id int64) (*db.TicketCategory, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var category db.TicketCategory
	err := c.db.GetContext(ctx, &category, `SELECT id, category_name, description FROM ticket_category WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket category %d: %w", id, err)
	}
	return &category, nil
}

func (c *sqliteClient) CreateTicket(ctx context.Context, ticket *db.Ticket) (*db.Ticket, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO ticket (ref, category_id, user_id, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ticket.Ref, ticket.CategoryID, ticket.UserID, ticket.Message, ticket.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket id: %w", err)
	}
	ticket.ID = id
	return ticket, nil
}

func (c *sqliteClient) GetTicketByRef(ctx context.Context, ref string) (*db.Ticket, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var ticket db.Ticket
	err := c.db.GetContext(ctx, &ticket, `
		SELECT id, ref, category_id, user_id, message, created_at
		FROM ticket
		WHERE ref = ?
	`, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket %s: %w", ref, err)
	}
	return &ticket, nil
}
