package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName      string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Avatar        string     `bun:"avatar,notnull" json:"avatar,omitempty"`
	CoverImage    string     `bun:"cover_image" json:"cover_image,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"password_hash,omitempty"`
	RefreshToken  string     `bun:"refresh_token" json:"refresh_token,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Sanitized returns a copy of the user safe to serialize in responses,
// with credential material stripped.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	s := *u
	s.PasswordHash = ""
	s.RefreshToken = ""
	return &s
}
