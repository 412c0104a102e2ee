package database

// Commit journal queries
const (
	InsertCommitSQL = `
		INSERT INTO commit_log (order_number, room_number, guest_name, grc_no, service_type,
			subtotal, tax_amount, service_charge_amount, grand_total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	InsertCommitLineSQL = `
		INSERT INTO commit_line_outcomes (commit_id, item_id, item_name, quantity, unit_price, category, notes, deduction_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	InsertCommitGroupSQL = `
		INSERT INTO commit_group_outcomes (commit_id, category, destination, downstream_order_id, subtotal, creation_error)
		VALUES ($1, $2, $3, $4, $5, $6)`

	GetFailedCommitsSQL = `
		SELECT c.id, c.order_number, c.room_number, c.guest_name, c.service_type,
			   c.grand_total, c.status, c.created_at
		FROM commit_log c
		WHERE c.status = 'partially_committed'
		ORDER BY c.created_at DESC
		LIMIT $1`

	GetCommitLineFailuresSQL = `
		SELECT item_id, item_name, quantity, deduction_error
		FROM commit_line_outcomes
		WHERE commit_id = $1 AND deduction_error IS NOT NULL
		ORDER BY id ASC`

	GetCommitGroupFailuresSQL = `
		SELECT category, destination, creation_error
		FROM commit_group_outcomes
		WHERE commit_id = $1 AND creation_error IS NOT NULL
		ORDER BY id ASC`
)

// Status audit queries
const (
	InsertStatusChangeSQL = `
		INSERT INTO order_status_log (order_id, from_status, to_status, changed_by, notes)
		VALUES ($1, $2, $3, $4, $5)`

	GetStatusHistorySQL = `
		SELECT from_status, to_status, changed_by, notes, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC`
)
