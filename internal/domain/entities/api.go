package entities

// ErrorResponse is the standard error envelope returned by the API.
type ErrorResponse struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// RegisterRequest completes registration for an already-authenticated
// principal.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// ResetPasswordRequest asks for a password-reset email dispatch.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyEmailResponse reports the outcome of an email verification.
type VerifyEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UpdateUserRequest updates mutable profile fields.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// TransactionListResponse is one page of the filtered transaction list.
type TransactionListResponse struct {
	Rows       []DisplayTransaction `json:"rows"`
	TotalCount int                  `json:"total_count"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
}

// EditRequest stages a pending edit for one transaction.
type EditRequest struct {
	NewStatus string `json:"new_status"`
	Notes     string `json:"notes"`
}

// ChangeKind labels a row-change event on a watched table.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent is published after a successful write so that other
// sessions' views refetch.
type ChangeEvent struct {
	Table string     `json:"table"`
	Kind  ChangeKind `json:"kind"`
	RowID string     `json:"row_id,omitempty"`
}
