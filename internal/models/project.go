package models

import (
	"time"

	"github.com/google/uuid"
)

// Project groups one batch of uploads with the extractions derived from them.
// Each project owns an isolated target database that applied schemas land in.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Project) Prepare() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Name == "" {
		p.Name = "Untitled"
	}
}
