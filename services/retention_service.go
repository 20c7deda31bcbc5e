package services

import (
	"context"
	"log/slog"
	"time"

	"studenteats/models"
	"studenteats/utils"

	"gorm.io/gorm"
)

type RetentionService struct{ db *gorm.DB }

func NewRetentionService(db *gorm.DB) *RetentionService { return &RetentionService{db: db} }

type SweepResult struct {
	Dates   []string `json:"dates"`
	Matched int64    `json:"matched"`
	Deleted int64    `json:"deleted"`
	Kept    int64    `json:"kept"`
}

// SweepPastWeek deletes catalog rows dated yesterday through seven days ago.
// Today's rows stay since open orders may still point at them. Rows are matched
// in both the canonical and the ISO date form.
func (s *RetentionService) SweepPastWeek(ctx context.Context, now time.Time) (*SweepResult, error) {
	res := &SweepResult{Dates: utils.PastWeekDates(now)}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.FoodItem{}).Where("date IN ?", res.Dates).Count(&res.Matched).Error; err != nil {
		return res, Upstream("counting expired food items", err)
	}
	slog.Info("retention sweep", "matched", res.Matched, "from", res.Dates[len(res.Dates)-1], "to", res.Dates[0])

	if res.Matched > 0 {
		del := db.Where("date IN ?", res.Dates).Delete(&models.FoodItem{})
		if del.Error != nil {
			return res, Upstream("deleting expired food items", del.Error)
		}
		res.Deleted = del.RowsAffected
	}

	if err := db.Model(&models.FoodItem{}).Count(&res.Kept).Error; err != nil {
		slog.Warn("retention sweep: counting remaining rows failed", "err", err)
	}
	return res, nil
}
