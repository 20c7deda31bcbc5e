package services

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"studenteats/config"
	"studenteats/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "studenteats.db")), config.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	return db
}

func ptr[T any](v T) *T { return &v }

func seedFood(t *testing.T, db *gorm.DB, name, location, date, mealType string, cal int, protein float64) models.FoodItem {
	t.Helper()
	f := models.FoodItem{
		Name:        name,
		ServingSize: "1 serving",
		Calories:    cal,
		Protein:     protein,
		TotalCarb:   20,
		TotalFat:    10,
		Sodium:      300,
		Location:    ptr(location),
		Date:        ptr(date),
		MealType:    ptr(mealType),
	}
	require.NoError(t, db.Create(&f).Error)
	return f
}

func seedProfile(t *testing.T, db *gorm.DB, userID string) *ProfileView {
	t.Helper()
	p, err := NewProfileService(db).Upsert(context.Background(), userID, ProfileInput{
		Age:           20,
		Sex:           "M",
		HeightCm:      ptr(175.0),
		WeightKg:      ptr(70.0),
		ActivityLevel: 3,
	})
	require.NoError(t, err)
	return p
}

func requireKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	require.Error(t, err)
	e := AsError(err)
	require.Equal(t, kind, e.Kind, e.Error())
	return e
}

type recordingNotifier struct{ events []string }

func (r *recordingNotifier) OrderChanged(_ context.Context, _ *models.Order, event string) {
	r.events = append(r.events, event)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
