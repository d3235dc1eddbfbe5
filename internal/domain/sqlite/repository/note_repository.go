package repository

import (
	"errors"
	"strings"

	"notepad/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultNoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *DefaultNoteRepository {
	return &DefaultNoteRepository{db: db}
}

func (d *DefaultNoteRepository) FindAllByUser(userID int64) ([]*entity.Note, error) {
	var notes []*entity.Note
	err := d.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (d *DefaultNoteRepository) FindByIDAndUser(id, userID int64) (*entity.Note, error) {
	var note entity.Note
	err := d.db.
		Where("id = ? AND user_id = ?", id, userID).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (d *DefaultNoteRepository) FindFavoritesByUser(userID int64) ([]*entity.Note, error) {
	var notes []*entity.Note
	err := d.db.
		Where("user_id = ? AND is_favorite = ?", userID, true).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// SearchByUser matches notes whose title or content contains the keyword,
// case-insensitive, newest first.
func (d *DefaultNoteRepository) SearchByUser(userID int64, keyword string) ([]*entity.Note, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"

	var notes []*entity.Note
	err := d.db.
		Where("user_id = ? AND (LOWER(title) LIKE ? OR LOWER(content) LIKE ?)",
			userID, pattern, pattern).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (d *DefaultNoteRepository) CountByUser(userID int64) (int64, error) {
	var count int64
	err := d.db.
		Model(&entity.Note{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (d *DefaultNoteRepository) CountFavoritesByUser(userID int64) (int64, error) {
	var count int64
	err := d.db.
		Model(&entity.Note{}).
		Where("user_id = ? AND is_favorite = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (d *DefaultNoteRepository) Save(note *entity.Note) error {
	return d.db.Save(note).Error
}

// UpdateOwned applies mutate to the note with the given id and owner inside
// a single transaction, so the ownership check and the write cannot race a
// concurrent request on the same row. Returns nil when no such note exists.
func (d *DefaultNoteRepository) UpdateOwned(id, userID int64, mutate func(*entity.Note)) (*entity.Note, error) {
	var note entity.Note
	err := d.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&note).Error
		if err != nil {
			return err
		}

		mutate(&note)
		return tx.Save(&note).Error
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteOwned removes the note in one conditional statement; the ownership
// check rides on the WHERE clause. Returns false when nothing was deleted.
func (d *DefaultNoteRepository) DeleteOwned(id, userID int64) (bool, error) {
	res := d.db.
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entity.Note{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
