// README: Holiday rule store backed by PostgreSQL.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadCalendar returns the default calendar extended with every row of holiday_rules.
func (s *Store) LoadCalendar(ctx context.Context) (*Calendar, error) {
	cal := DefaultCalendar()
	if s == nil || s.db == nil {
		return cal, nil
	}

	rows, err := s.db.Query(ctx, `SELECT country, month, day FROM holiday_rules ORDER BY country, month, day`)
	if err != nil {
		return nil, fmt.Errorf("query holiday rules: %w", err)
	}
	defer rows.Close()

	byCountry := map[string][]MonthDay{}
	for rows.Next() {
		var country string
		var month, day int
		if err := rows.Scan(&country, &month, &day); err != nil {
			return nil, fmt.Errorf("scan holiday rule: %w", err)
		}
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return nil, fmt.Errorf("holiday rule %s %02d-%02d out of range", country, month, day)
		}
		byCountry[country] = append(byCountry[country], MonthDay{Month: time.Month(month), Day: day})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read holiday rules: %w", err)
	}

	for country, days := range byCountry {
		cal = cal.With(country, days...)
	}
	return cal, nil
}

func (s *Store) AddHoliday(ctx context.Context, country string, md MonthDay) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO holiday_rules (country, month, day)
		VALUES ($1, $2, $3)
		ON CONFLICT (country, month, day) DO NOTHING`,
		country, int(md.Month), md.Day,
	)
	return err
}
