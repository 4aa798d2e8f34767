package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/augur/pkg/query"
	"github.com/JaimeStill/augur/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "contacts", "c").
	Project("id", "ID").
	Project("email", "Email").
	Project("phone", "Phone").
	Project("name", "Name").
	Project("company", "Company").
	Project("industry", "Industry").
	Project("location", "Location").
	Project("keywords", "Keywords").
	Project("activity_date", "ActivityDate").
	Project("intent_score", "IntentScore").
	Project("enriched_data", "EnrichedData").
	Project("source", "Source").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var storedOrder = query.SortField{Field: "c.position"}

const insertContact = `
	INSERT INTO contacts(
		id, position, email, phone, name, company, industry, location,
		keywords, activity_date, intent_score, enriched_data, source,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

type postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres creates a Store backed by the contacts table. ReplaceAll runs
// inside a single transaction so readers never observe a half-written set.
func NewPostgres(db *sql.DB, logger *slog.Logger) Store {
	return &postgres{
		db:     db,
		logger: logger.With("store", "postgres"),
	}
}

func (p *postgres) LoadAll(ctx context.Context) ([]Contact, error) {
	q, args := query.NewBuilder(projection, storedOrder).Build()

	contacts, err := repository.QueryMany(ctx, p.db, q, args, scanContact)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	return contacts, nil
}

func (p *postgres) ReplaceAll(ctx context.Context, contacts []Contact) error {
	_, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM contacts"); err != nil {
			return struct{}{}, fmt.Errorf("clear contacts: %w", err)
		}

		for i, c := range contacts {
			args, err := insertArgs(i, c)
			if err != nil {
				return struct{}{}, err
			}
			if _, err := tx.ExecContext(ctx, insertContact, args...); err != nil {
				return struct{}{}, fmt.Errorf("insert contact %s: %w", c.ID, err)
			}
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrCorruptStore, ErrDuplicate)
	}

	p.logger.Debug("contacts replaced", "count", len(contacts))
	return nil
}

func insertArgs(position int, c Contact) ([]any, error) {
	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}

	var enriched any
	if c.EnrichedData != nil {
		data, err := json.Marshal(c.EnrichedData)
		if err != nil {
			return nil, fmt.Errorf("marshal enriched data: %w", err)
		}
		enriched = data
	}

	var score any
	if c.IntentScore != "" {
		score = string(c.IntentScore)
	}

	return []any{
		c.ID,
		position,
		c.Email,
		c.Phone,
		c.Name,
		c.Company,
		c.Industry,
		c.Location,
		keywordsJSON,
		c.ActivityDate,
		score,
		enriched,
		string(c.Source),
		c.CreatedAt,
		c.UpdatedAt,
	}, nil
}

func scanContact(s repository.Scanner) (Contact, error) {
	var (
		c        Contact
		keywords []byte
		score    sql.NullString
		enriched []byte
		source   string
	)

	err := s.Scan(
		&c.ID,
		&c.Email,
		&c.Phone,
		&c.Name,
		&c.Company,
		&c.Industry,
		&c.Location,
		&keywords,
		&c.ActivityDate,
		&score,
		&enriched,
		&source,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}

	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &c.Keywords); err != nil {
			return c, fmt.Errorf("%w: keywords: %v", ErrCorruptStore, err)
		}
	}
	if len(enriched) > 0 {
		c.EnrichedData = &EnrichedData{}
		if err := json.Unmarshal(enriched, c.EnrichedData); err != nil {
			return c, fmt.Errorf("%w: enriched_data: %v", ErrCorruptStore, err)
		}
	}
	if score.Valid {
		c.IntentScore = IntentLevel(score.String)
	}
	c.Source = Source(source)

	return c, nil
}
