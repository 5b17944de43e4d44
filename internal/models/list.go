package models

// ListParams holds pagination parameters for listing users.
type ListParams struct {
	Page  int // 1-based page number
	Limit int // Page size, 1..100
}

// Pagination describes the position of a page within the full collection.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// UserList is a page of users plus pagination metadata.
type UserList struct {
	Data       []User     `json:"data"`
	Pagination Pagination `json:"pagination"`
}
