package services

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

var ErrContactNotFound = errors.New("contact not found")

var contactSortFields = []string{
	"first_name", "last_name", "email", "company",
	"lead_status", "lead_source", "lead_score", "created_at",
}

type ContactService struct {
	db *gorm.DB
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db}
}

// ParseTagIDs converts form tag ids to uints. Values that are not valid
// integers are skipped silently.
func ParseTagIDs(raw []string) []uint {
	ids := make([]uint, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// applyFilter appends one predicate per populated filter field, in a
// fixed order so generated SQL is deterministic.
func (s *ContactService) applyFilter(query *gorm.DB, filter dto.ContactFilter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR company LIKE ?",
			like, like, like, like,
		)
	}
	if filter.LeadStatus != "" {
		query = query.Where("lead_status = ?", filter.LeadStatus)
	}
	if filter.LeadSource != "" {
		query = query.Where("lead_source = ?", filter.LeadSource)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if len(filter.TagIDs) > 0 {
		query = query.Where(
			"id IN (SELECT contact_id FROM contact_tags WHERE tag_id IN ?)",
			filter.TagIDs,
		)
	}
	return query
}

func (s *ContactService) List(filter dto.ContactFilter, opts dto.ListOptions) ([]models.Contact, error) {
	var contacts []models.Contact
	query := s.applyFilter(s.db.Model(&models.Contact{}), filter).
		Preload("Tags").Preload("Owner")
	query = applyListOptions(query, opts, "created_at", contactSortFields)
	return contacts, query.Find(&contacts).Error
}

// Count applies the identical filter predicate as List so totals stay
// consistent with page contents.
func (s *ContactService) Count(filter dto.ContactFilter) (int64, error) {
	var count int64
	err := s.applyFilter(s.db.Model(&models.Contact{}), filter).Count(&count).Error
	return count, err
}

func (s *ContactService) Get(id uint) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.Preload("Tags").Preload("Owner").First(&contact, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Create inserts the contact and its tag links in one transaction.
func (s *ContactService) Create(req dto.ContactRequest, createdBy uint) (*models.Contact, error) {
	contact := models.Contact{
		CreatedBy:  createdBy,
		OwnerID:    req.OwnerID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		Position:   req.Position,
		Address:    req.Address,
		City:       req.City,
		Country:    req.Country,
		LeadSource: req.LeadSource,
		LeadStatus: req.LeadStatus,
		LeadScore:  req.LeadScore,
		Notes:      req.Notes,
	}
	tagIDs := ParseTagIDs(req.TagIDs)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contact).Error; err != nil {
			return err
		}
		return setTagLinks(tx, contact.ID, tagIDs)
	})
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Update rewrites the contact row and replaces its tag links in one
// transaction.
func (s *ContactService) Update(id uint, req dto.ContactRequest) error {
	tagIDs := ParseTagIDs(req.TagIDs)
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Contact{}).Where("id = ?", id).Updates(map[string]interface{}{
			"owner_id":    req.OwnerID,
			"first_name":  req.FirstName,
			"last_name":   req.LastName,
			"email":       req.Email,
			"phone":       req.Phone,
			"company":     req.Company,
			"position":    req.Position,
			"address":     req.Address,
			"city":        req.City,
			"country":     req.Country,
			"lead_source": req.LeadSource,
			"lead_status": req.LeadStatus,
			"lead_score":  req.LeadScore,
			"notes":       req.Notes,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrContactNotFound
		}
		if err := tx.Exec("DELETE FROM contact_tags WHERE contact_id = ?", id).Error; err != nil {
			return err
		}
		return setTagLinks(tx, id, tagIDs)
	})
}

func setTagLinks(tx *gorm.DB, contactID uint, tagIDs []uint) error {
	for _, tagID := range tagIDs {
		err := tx.Exec(
			"INSERT INTO contact_tags (contact_id, tag_id) VALUES (?, ?)",
			contactID, tagID,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the contact with its interactions, deals and tag links
// in one transaction. Pending reminders pointing at it are dismissed
// rather than deleted.
func (s *ContactService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var contact models.Contact
		if err := tx.First(&contact, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContactNotFound
			}
			return err
		}
		if err := tx.Where("contact_id = ?", id).Delete(&models.Interaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contact_id = ?", id).Delete(&models.Deal{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM contact_tags WHERE contact_id = ?", id).Error; err != nil {
			return err
		}
		err := tx.Model(&models.Reminder{}).
			Where("related_type = ? AND related_id = ? AND status = ?",
				models.RelatedContact, id, models.ReminderPending).
			Update("status", models.ReminderDismissed).Error
		if err != nil {
			return err
		}
		return tx.Delete(&contact).Error
	})
}

func (s *ContactService) SetAvatar(id uint, filename string) error {
	result := s.db.Model(&models.Contact{}).Where("id = ?", id).Update("avatar", filename)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// LeadSources returns the distinct non-empty lead sources in use.
func (s *ContactService) LeadSources() ([]string, error) {
	var sources []string
	err := s.db.Model(&models.Contact{}).
		Where("lead_source <> ''").
		Distinct().Order("lead_source ASC").
		Pluck("lead_source", &sources).Error
	return sources, err
}

// LeadStatuses returns the distinct non-empty lead statuses in use.
func (s *ContactService) LeadStatuses() ([]string, error) {
	var statuses []string
	err := s.db.Model(&models.Contact{}).
		Where("lead_status <> ''").
		Distinct().Order("lead_status ASC").
		Pluck("lead_status", &statuses).Error
	return statuses, err
}

type labelCount struct {
	Label string
	Count int64
}

// CountByLeadStatus groups contacts by lead status. Lead status is free
// text, so the domain is whatever values exist.
func (s *ContactService) CountByLeadStatus() (map[string]int64, error) {
	return s.countBy("lead_status")
}

// CountByLeadSource groups contacts by lead source.
func (s *ContactService) CountByLeadSource() (map[string]int64, error) {
	return s.countBy("lead_source")
}

func (s *ContactService) countBy(column string) (map[string]int64, error) {
	var rows []labelCount
	err := s.db.Model(&models.Contact{}).
		Select(column+" AS label, COUNT(*) AS count").
		Where(column+" <> ''").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Label] = row.Count
	}
	return counts, nil
}

// OwnerCount pairs an owner with the number of contacts assigned to
// them.
type OwnerCount struct {
	OwnerID   uint   `json:"owner_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Count     int64  `json:"count"`
}

// CountByOwner groups assigned contacts by owning agent.
func (s *ContactService) CountByOwner() ([]OwnerCount, error) {
	var rows []OwnerCount
	err := s.db.Model(&models.Contact{}).
		Select("contacts.owner_id, users.first_name, users.last_name, COUNT(*) AS count").
		Joins("JOIN users ON users.id = contacts.owner_id").
		Group("contacts.owner_id, users.first_name, users.last_name").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// Recent returns the n most recently created contacts.
func (s *ContactService) Recent(n int) ([]models.Contact, error) {
	var contacts []models.Contact
	err := s.db.Preload("Tags").Order("created_at DESC").Limit(n).Find(&contacts).Error
	return contacts, err
}

// Import attempts one create per row. A row without both name fields
// fails; other rows are inserted independently, so one bad row never
// aborts the batch.
func (s *ContactService) Import(rows []dto.ContactRequest, createdBy uint) (dto.ImportResult, error) {
	var result dto.ImportResult
	for _, row := range rows {
		if row.FirstName == "" || row.LastName == "" {
			result.Failed++
			continue
		}
		if _, err := s.Create(row, createdBy); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}
	return result, nil
}

// ForExport returns the full filtered set with tags, unpaginated.
func (s *ContactService) ForExport(filter dto.ContactFilter) ([]models.Contact, error) {
	var contacts []models.Contact
	err := s.applyFilter(s.db.Model(&models.Contact{}), filter).
		Preload("Tags").
		Order("created_at DESC").
		Find(&contacts).Error
	return contacts, err
}
