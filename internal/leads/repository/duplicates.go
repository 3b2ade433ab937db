package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/duplicate"
)

// FindDuplicates returns leads matching any of the criteria's identity keys.
// excludeID removes the lead being edited from its own results; pass
// uuid.Nil when checking a new lead. Results are capped, oldest first so the
// original lead surfaces before its copies.
func (r *Repository) FindDuplicates(ctx context.Context, criteria duplicate.Criteria, excludeID uuid.UUID, limit int) ([]Lead, error) {
	if criteria.Empty() {
		return []Lead{}, nil
	}
	if limit <= 0 || limit > duplicate.MaxMatches {
		limit = duplicate.MaxMatches
	}

	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if criteria.EmailKey != "" {
		args = append(args, criteria.EmailKey)
		clauses = append(clauses, fmt.Sprintf("lower(contact_email) = $%d", len(args)))
	}
	if criteria.CompanyKey != "" {
		args = append(args, criteria.CompanyKey)
		clauses = append(clauses, fmt.Sprintf("lower(company) = $%d", len(args)))
	}
	if criteria.PhoneKey != "" {
		args = append(args, criteria.PhoneKey)
		clauses = append(clauses, fmt.Sprintf("contact_phone_key = $%d", len(args)))
	}

	where := "(" + strings.Join(clauses, " OR ") + ")"
	if excludeID != uuid.Nil {
		args = append(args, excludeID)
		where += fmt.Sprintf(" AND id != $%d", len(args))
	}

	args = append(args, limit)
	query := `SELECT ` + leadColumns + ` FROM leads WHERE ` + where +
		fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	defer rows.Close()

	return collectLeads(rows)
}
