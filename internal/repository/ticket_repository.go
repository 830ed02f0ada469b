package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teplocom/support-triage/internal/domain"
)

// DailyCount is one day of ticket intake for the dashboard.
type DailyCount struct {
	Date  time.Time
	Count int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error)
	CountBySentiment(ctx context.Context) (map[domain.Sentiment]int64, error)
	DailyCounts(ctx context.Context, since time.Time) ([]DailyCount, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, full_name, object_name, phone, email, serial_numbers, device_type,
               sentiment, issue_summary, status, original_message, ai_draft, final_answer,
               context, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (full_name, object_name, phone, email, serial_numbers, device_type,
            sentiment, issue_summary, status, original_message, ai_draft, final_answer, context)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	contextJSON, err := encodeContext(ticket.Context)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query,
		ticket.FullName,
		ticket.ObjectName,
		ticket.Phone,
		ticket.Email,
		ticket.SerialNumbers,
		ticket.DeviceType,
		ticket.Sentiment,
		ticket.IssueSummary,
		ticket.Status,
		ticket.OriginalMessage,
		ticket.AIDraft,
		ticket.FinalAnswer,
		contextJSON,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET full_name=$1, object_name=$2, phone=$3, serial_numbers=$4,
            device_type=$5, sentiment=$6, issue_summary=$7, status=$8, final_answer=$9,
            context=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	contextJSON, err := encodeContext(ticket.Context)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query,
		ticket.FullName,
		ticket.ObjectName,
		ticket.Phone,
		ticket.SerialNumbers,
		ticket.DeviceType,
		ticket.Sentiment,
		ticket.IssueSummary,
		ticket.Status,
		ticket.FinalAnswer,
		contextJSON,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int64)
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CountBySentiment(ctx context.Context) (map[domain.Sentiment]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT sentiment, COUNT(*) FROM tickets GROUP BY sentiment`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Sentiment]int64)
	for rows.Next() {
		var sentiment domain.Sentiment
		var count int64
		if err := rows.Scan(&sentiment, &count); err != nil {
			return nil, err
		}
		counts[sentiment] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) DailyCounts(ctx context.Context, since time.Time) ([]DailyCount, error) {
	const query = `
        SELECT DATE_TRUNC('day', created_at) AS day, COUNT(*)
        FROM tickets WHERE created_at >= $1
        GROUP BY day ORDER BY day`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyCount
	for rows.Next() {
		var entry DailyCount
		if err := rows.Scan(&entry.Date, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var contextJSON []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.FullName,
		&ticket.ObjectName,
		&ticket.Phone,
		&ticket.Email,
		&ticket.SerialNumbers,
		&ticket.DeviceType,
		&ticket.Sentiment,
		&ticket.IssueSummary,
		&ticket.Status,
		&ticket.OriginalMessage,
		&ticket.AIDraft,
		&ticket.FinalAnswer,
		&contextJSON,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &ticket.Context); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}

func encodeContext(context map[string]string) ([]byte, error) {
	if context == nil {
		context = map[string]string{}
	}
	return json.Marshal(context)
}
