package entity

import "time"

// ImageUpload is a stored proof photo together with the verdict computed when
// it was uploaded. ExpenseID is empty until an expense references it.
type ImageUpload struct {
	Ref       string        `json:"ref"`
	UserID    string        `json:"user_id"`
	Kind      string        `json:"kind"`
	Hash      string        `json:"hash"`
	MIMEType  string        `json:"mime_type"`
	Size      int64         `json:"size"`
	Verdict   *ImageVerdict `json:"verdict,omitempty"`
	ExpenseID string        `json:"expense_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
