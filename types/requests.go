package types

import "time"

// RegisterRequest is the payload of POST /auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=100"`
	Username *string `json:"username" validate:"omitnil,min=1,max=50"`
}

// LoginRequest carries the credentials of POST /auth/login. Username holds
// the account email.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the payload of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}

// TaskCreate is the payload of POST /tasks/. Status and priority default to
// pending and medium.
type TaskCreate struct {
	Title       string        `json:"title" validate:"required,min=1,max=100"`
	Description *string       `json:"description" validate:"omitnil,max=500"`
	Status      *TaskStatus   `json:"status" validate:"omitnil,oneof=pending completed"`
	Priority    *TaskPriority `json:"priority" validate:"omitnil,oneof=low medium high"`
	DueDate     *DateTime     `json:"dueDate"`
	CategoryID  *string       `json:"categoryId" validate:"omitnil,uuid"`
}

// TaskPatch is the payload of PUT /tasks/{id}. Only supplied fields are
// applied. A null title, status or priority counts as not supplied; a null
// description, dueDate or categoryId clears the field.
type TaskPatch struct {
	Title       *string            `json:"title" validate:"omitnil,min=1,max=100"`
	Description Nullable[string]   `json:"description" validate:"omitempty,max=500"`
	Status      *TaskStatus        `json:"status" validate:"omitnil,oneof=pending completed"`
	Priority    *TaskPriority      `json:"priority" validate:"omitnil,oneof=low medium high"`
	DueDate     Nullable[DateTime] `json:"dueDate"`
	CategoryID  Nullable[string]   `json:"categoryId" validate:"omitempty,uuid"`
}

// Empty reports whether the patch supplies no field at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil &&
		!p.Description.Set &&
		p.Status == nil &&
		p.Priority == nil &&
		!p.DueDate.Set &&
		!p.CategoryID.Set
}

// TaskQuery holds the raw listing parameters of GET /tasks/.
type TaskQuery struct {
	Status   *TaskStatus   `json:"status" validate:"omitnil,oneof=pending completed"`
	Priority *TaskPriority `json:"priority" validate:"omitnil,oneof=low medium high"`
	Limit    int           `json:"limit" validate:"gte=1"`
	Offset   int           `json:"offset" validate:"gte=0"`
}

// CategoryCreate is the payload of POST /categories/.
type CategoryCreate struct {
	Name  string  `json:"name" validate:"required,min=1,max=50"`
	Color *string `json:"color" validate:"omitnil,hexcolor6"`
}

// ExportResult describes a stored task export.
type ExportResult struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Count  int    `json:"count"`
	// URL is a time-limited download link, absent when the backend could
	// not sign one.
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
