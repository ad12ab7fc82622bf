package types

type OutputBasicUserInfo struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Created  int64  `json:"created,omitempty"`
}

type OutputEmailList struct {
	Items      []EmailListItem `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalCount int             `json:"totalCount"`
	TotalPages int             `json:"totalPages"`
}

type OutputRecipient struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type OutputMessage struct {
	Message string `json:"message"`
}
