package domain

import (
	"time"

	"github.com/google/uuid"
)

// Folder — узел дерева папок. Папки никогда не несут версий;
// цикл в дереве (папка — собственный предок) запрещён.
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FolderContent — содержимое папки для выдачи наружу
type FolderContent struct {
	Folder           *Folder   `json:"folder"`
	Files            []*File   `json:"files"`
	Subfolders       []*Folder `json:"subfolders"`
	TotalMonthlyCost float64   `json:"total_monthly_cost"`
}
