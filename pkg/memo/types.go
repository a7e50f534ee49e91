package memo

// Title is a memo list entry.
type Title struct {
	ID       int     `json:"id"`
	Title    *string `json:"title"`
	UserID   int     `json:"user_id"`
	Savetime *int64  `json:"savetime"`
}

// Memo is a full memo as returned by memo_read.
type Memo struct {
	ID       int     `json:"id"`
	Title    *string `json:"title"`
	Body     *string `json:"memotekst"`
	Savetime *int64  `json:"savetime"`
	GroupID  *int    `json:"memo_group_id"`
	UserID   int     `json:"user_id"`
}

// Group is a memo group header.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// WriteRequest is a memo create or update. A nil MemoID creates a new memo;
// a nil GroupID leaves the memo in the writer's default group.
type WriteRequest struct {
	MemoID  *int
	Text    string
	GroupID *int
}

// WriteResult reports the id and savetime assigned by memo_write.
type WriteResult struct {
	ID       int   `json:"id"`
	Savetime int64 `json:"savetime"`
}
