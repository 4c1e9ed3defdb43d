package dto

// ListMeta accompanies paginated list responses.
type ListMeta struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    *int `json:"total,omitempty"`
}
