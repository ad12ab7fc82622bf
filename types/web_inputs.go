package types

type InputSignup struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type InputSignin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// InputSendEmail arrives as a multipart form so an attachment can ride along.
type InputSendEmail struct {
	RecipientID int64  `form:"recipientId" validate:"required,gt=0"`
	Subject     string `form:"subject"`
	Body        string `form:"body"`
}

// InputBulkDelete accepts both wire shapes used by callers:
// {"emailIds": [1,2]} and {"ids": [1,2], "location": "inbox"}.
// Location is advisory only; ownership of every id is re-checked per item.
type InputBulkDelete struct {
	EmailIDs []int64 `json:"emailIds"`
	IDs      []int64 `json:"ids"`
	Location string  `json:"location" validate:"omitempty,oneof=inbox outbox"`
}

// AllIDs normalizes the two accepted shapes into a single id list.
func (in *InputBulkDelete) AllIDs() []int64 {
	if len(in.EmailIDs) > 0 {
		return in.EmailIDs
	}
	return in.IDs
}
