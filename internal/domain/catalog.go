package domain

import "github.com/google/uuid"

// Catalog — каталожный документ одного пользователя. Читается и
// записывается целиком; запись одного пользователя — единица взаимного
// исключения, между пользователями координация не нужна.
type Catalog struct {
	Files   []*File   `json:"files"`
	Folders []*Folder `json:"folders"`
}

// Item — закрытый вариант «файл или папка»: ровно одно поле не nil.
// Все места, различающие файлы и папки, обязаны разбирать оба случая.
type Item struct {
	File   *File
	Folder *Folder
}

// FileByID находит файл в каталоге
func (c *Catalog) FileByID(id uuid.UUID) *File {
	for _, f := range c.Files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// FolderByID находит папку в каталоге
func (c *Catalog) FolderByID(id uuid.UUID) *Folder {
	for _, f := range c.Folders {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// ItemByID разрешает идентификатор в файл или папку
func (c *Catalog) ItemByID(id uuid.UUID) (Item, bool) {
	if f := c.FileByID(id); f != nil {
		return Item{File: f}, true
	}
	if f := c.FolderByID(id); f != nil {
		return Item{Folder: f}, true
	}
	return Item{}, false
}

// FileByName ищет файл по имени внутри папки (nil — корень)
func (c *Catalog) FileByName(folderID *uuid.UUID, name string) *File {
	for _, f := range c.Files {
		if f.Name == name && sameFolder(f.FolderID, folderID) {
			return f
		}
	}
	return nil
}

// FolderIsEmpty сообщает, есть ли в папке файлы или подпапки
func (c *Catalog) FolderIsEmpty(id uuid.UUID) bool {
	for _, f := range c.Files {
		if f.FolderID != nil && *f.FolderID == id {
			return false
		}
	}
	for _, f := range c.Folders {
		if f.ParentID != nil && *f.ParentID == id {
			return false
		}
	}
	return true
}

// RemoveFile удаляет файл из каталога
func (c *Catalog) RemoveFile(id uuid.UUID) bool {
	for i, f := range c.Files {
		if f.ID == id {
			c.Files = append(c.Files[:i], c.Files[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveFolder удаляет папку из каталога
func (c *Catalog) RemoveFolder(id uuid.UUID) bool {
	for i, f := range c.Folders {
		if f.ID == id {
			c.Folders = append(c.Folders[:i], c.Folders[i+1:]...)
			return true
		}
	}
	return false
}

// IsAncestor проверяет, является ли ancestorID предком папки folderID.
// Используется как защита от цикла при перемещении папок.
func (c *Catalog) IsAncestor(ancestorID, folderID uuid.UUID) bool {
	seen := make(map[uuid.UUID]bool)
	current := c.FolderByID(folderID)
	for current != nil && current.ParentID != nil {
		if *current.ParentID == ancestorID {
			return true
		}
		if seen[current.ID] {
			// повреждённое дерево: цикл уже есть, дальше не идём
			return true
		}
		seen[current.ID] = true
		current = c.FolderByID(*current.ParentID)
	}
	return false
}

func sameFolder(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
