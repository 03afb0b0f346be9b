package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

const basePromotionsSelect = `SELECT id, COALESCE(run_id::text, ''), listing_id, succeeded,
	halted_run, COALESCE(error_text, ''), attempted_at
FROM promotions`

const countPromotionsSelect = "SELECT COUNT(*) FROM promotions"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a promotion
// history query. It returns the data query, the matching count query and
// their positional parameters.
func (q *PromotionQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.ListingID != nil {
		conditions = append(conditions, fmt.Sprintf("listing_id = $%d", paramIdx))
		args = append(args, *q.ListingID)
		paramIdx++
	}

	if q.RunID != nil {
		conditions = append(conditions, fmt.Sprintf("run_id = $%d", paramIdx))
		args = append(args, *q.RunID)
		paramIdx++
	}

	if q.SucceededOnly {
		conditions = append(conditions, "succeeded")
	}

	if q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("attempted_at >= $%d", paramIdx))
		args = append(args, *q.Since)
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY attempted_at DESC LIMIT %d OFFSET %d",
		basePromotionsSelect, whereClause, limit, offset,
	)
	countSQL = countPromotionsSelect + whereClause

	return dataSQL, countSQL, args
}
