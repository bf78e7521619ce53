package model

import "time"

// Group represents a student group. CuratorID points at the teacher
// administratively responsible for the group; a curator sees the group's
// full schedule even for lessons they do not personally teach.
type Group struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	CuratorID   *int      `json:"curator_id,omitempty"`
	CuratorName string    `json:"curator_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateGroupRequest is the payload for creating or updating a group.
type CreateGroupRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=50"`
	CuratorID *int   `json:"curator_id" binding:"omitempty"`
}
