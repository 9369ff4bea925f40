package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
)

var (
	ErrDealNotFound = errors.New("deal not found")
	ErrBadStage     = errors.New("unknown deal stage")
)

var dealSortFields = []string{"title", "amount", "stage", "probability", "expected_close_date", "created_at"}

type DealService struct {
	db *gorm.DB
}

func NewDealService(db *gorm.DB) *DealService {
	return &DealService{db: db}
}

func (s *DealService) applyFilter(query *gorm.DB, filter dto.DealFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("title LIKE ?", "%"+filter.Search+"%")
	}
	if filter.ContactID != 0 {
		query = query.Where("contact_id = ?", filter.ContactID)
	}
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	return query
}

func (s *DealService) List(filter dto.DealFilter, opts dto.ListOptions) ([]models.Deal, error) {
	var deals []models.Deal
	query := s.applyFilter(s.db.Model(&models.Deal{}), filter).
		Preload("Contact").Preload("Owner")
	query = applyListOptions(query, opts, "created_at", dealSortFields)
	return deals, query.Find(&deals).Error
}

func (s *DealService) Count(filter dto.DealFilter) (int64, error) {
	var count int64
	err := s.applyFilter(s.db.Model(&models.Deal{}), filter).Count(&count).Error
	return count, err
}

func (s *DealService) Get(id uint) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.Preload("Contact").Preload("Owner").First(&deal, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (s *DealService) Create(req dto.DealRequest, createdBy uint, now time.Time) (*models.Deal, error) {
	stage := req.Stage
	if stage == "" {
		stage = models.StageLead
	}
	if !models.ValidStage(stage) {
		return nil, ErrBadStage
	}
	probability := models.DefaultProbability(stage)
	if req.Probability != nil {
		probability = clampProbability(*req.Probability)
	}
	deal := models.Deal{
		ContactID:   req.ContactID,
		CreatedBy:   createdBy,
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Amount:      req.Amount,
		Stage:       stage,
		Probability: probability,
		Notes:       req.Notes,
	}
	if req.ExpectedCloseDate != "" {
		expected, err := parseDateTime(req.ExpectedCloseDate)
		if err != nil {
			return nil, err
		}
		deal.ExpectedCloseDate = &expected
	}
	if models.IsClosedStage(stage) {
		deal.ActualCloseDate = &now
	}
	if err := s.db.Create(&deal).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (s *DealService) Update(id uint, req dto.DealRequest, now time.Time) error {
	if !models.ValidStage(req.Stage) {
		return ErrBadStage
	}
	deal, err := s.Get(id)
	if err != nil {
		return err
	}
	probability := models.DefaultProbability(req.Stage)
	if req.Probability != nil {
		probability = clampProbability(*req.Probability)
	}
	updates := map[string]interface{}{
		"contact_id":  req.ContactID,
		"owner_id":    req.OwnerID,
		"title":       req.Title,
		"amount":      req.Amount,
		"stage":       req.Stage,
		"probability": probability,
		"notes":       req.Notes,
	}
	if req.ExpectedCloseDate != "" {
		expected, err := parseDateTime(req.ExpectedCloseDate)
		if err != nil {
			return err
		}
		updates["expected_close_date"] = expected
	} else {
		updates["expected_close_date"] = nil
	}
	updates["actual_close_date"] = closeDateFor(deal, req.Stage, now)
	return s.db.Model(&models.Deal{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStage moves a deal along the pipeline, resetting probability to
// the stage default and stamping the actual close date on close.
func (s *DealService) UpdateStage(id uint, stage string, now time.Time) error {
	if !models.ValidStage(stage) {
		return ErrBadStage
	}
	deal, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.db.Model(&models.Deal{}).Where("id = ?", id).Updates(map[string]interface{}{
		"stage":             stage,
		"probability":       models.DefaultProbability(stage),
		"actual_close_date": closeDateFor(deal, stage, now),
	}).Error
}

// closeDateFor stamps now when the deal enters a closed stage, keeps an
// existing stamp while it stays closed, and clears it on reopen.
func closeDateFor(deal *models.Deal, stage string, now time.Time) *time.Time {
	if !models.IsClosedStage(stage) {
		return nil
	}
	if deal.ActualCloseDate != nil {
		return deal.ActualCloseDate
	}
	return &now
}

func clampProbability(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func (s *DealService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Deal{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDealNotFound
		}
		return tx.Model(&models.Reminder{}).
			Where("related_type = ? AND related_id = ? AND status = ?",
				models.RelatedDeal, id, models.ReminderPending).
			Update("status", models.ReminderDismissed).Error
	})
}

// StageMetric is one pipeline stage's rollup.
type StageMetric struct {
	Stage string  `json:"stage"`
	Count int64   `json:"count"`
	Value float64 `json:"value"`
}

// ValueByStage returns one entry per pipeline stage in pipeline order,
// zero-filled for stages with no deals.
func (s *DealService) ValueByStage() ([]StageMetric, error) {
	var rows []StageMetric
	err := s.db.Model(&models.Deal{}).
		Select("stage, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS value").
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	byStage := make(map[string]StageMetric, len(rows))
	for _, row := range rows {
		byStage[row.Stage] = row
	}
	metrics := make([]StageMetric, 0, len(models.DealStages))
	for _, stage := range models.DealStages {
		metric, ok := byStage[stage]
		if !ok {
			metric = StageMetric{Stage: stage}
		}
		metrics = append(metrics, metric)
	}
	return metrics, nil
}

// Forecast returns the weighted pipeline value: sum of amount scaled by
// probability over every deal not yet closed.
func (s *DealService) Forecast() (float64, error) {
	var forecast float64
	err := s.db.Model(&models.Deal{}).
		Select("COALESCE(SUM(amount * probability / 100.0), 0)").
		Where("stage NOT IN ?", models.ClosedStages).
		Scan(&forecast).Error
	return forecast, err
}

// WonValueBetween sums won deal amounts closed within [start, end).
func (s *DealService) WonValueBetween(start, end time.Time) (float64, error) {
	var value float64
	err := s.db.Model(&models.Deal{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("stage = ?", models.StageClosedWon).
		Where("actual_close_date >= ? AND actual_close_date < ?", start, end).
		Scan(&value).Error
	return value, err
}

// WonValueForPeriod resolves a named period to time bounds and sums won
// value inside it. Unknown names fall back to this_month.
func (s *DealService) WonValueForPeriod(period string, now time.Time) (float64, error) {
	start, end := periodBounds(period, now)
	return s.WonValueBetween(start, end)
}

// periodBounds computes half-open [start, end) bounds in the time zone
// of now. Weeks start on Monday.
func periodBounds(period string, now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "today":
		return midnight, midnight.AddDate(0, 0, 1)
	case "this_week":
		offset := (int(now.Weekday()) + 6) % 7
		start := midnight.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case "this_quarter":
		quarterMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		start := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 3, 0)
	case "this_year":
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0)
	default:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	}
}

// Pipeline groups deals by stage for the board view, with an entry for
// every stage.
func (s *DealService) Pipeline() (map[string][]models.Deal, error) {
	var deals []models.Deal
	err := s.db.Preload("Contact").Order("created_at DESC").Find(&deals).Error
	if err != nil {
		return nil, err
	}
	board := make(map[string][]models.Deal, len(models.DealStages))
	for _, stage := range models.DealStages {
		board[stage] = []models.Deal{}
	}
	for _, deal := range deals {
		board[deal.Stage] = append(board[deal.Stage], deal)
	}
	return board, nil
}
