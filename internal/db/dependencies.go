package db

import (
	"context"
	"time"
)

type Client interface {
	Close() error

	// Access records. GetUserAccess returns (nil, nil) when no record exists.
	GetUserAccess(ctx context.Context, userID int64) (*UserAccess, error)
	UpsertUserAccess(ctx context.Context, access *UserAccess) error
	SetUserStatus(ctx context.Context, userID int64, status UserStatus) error
	SetUserCooldown(ctx context.Context, userID int64, until *time.Time) error

	// Reference data.
	ListGroups(ctx context.Context) ([]Group, error)
	ListTicketCategories(ctx context.Context) ([]TicketCategory, error)
	GetTicketCategory(ctx context.Context, id int64) (*TicketCategory, error)

	// Submissions.
	CreateTicket(ctx context.Context, ticket *Ticket) (*Ticket, error)
	GetTicketByRef(ctx context.Context, ref string) (*Ticket, error)
}
