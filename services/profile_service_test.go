package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileUpsertComputesMetrics(t *testing.T) {
	db := newTestDB(t)
	p := seedProfile(t, db, "user-1")

	assert.Equal(t, "Male", p.Sex)
	assert.Equal(t, 1698.75, p.BMR)
	assert.Equal(t, 2633.06, p.TDEE)
	assert.Equal(t, 22.86, p.BMI)
	assert.Equal(t, "Normal weight", p.BMICategory)
}

func TestProfileUpsertReplaces(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)
	ctx := context.Background()
	seedProfile(t, db, "user-1")

	p, err := svc.Upsert(ctx, "user-1", ProfileInput{
		Age:           30,
		Sex:           "female",
		HeightInches:  ptr(65.0),
		WeightLbs:     ptr(140.0),
		ActivityLevel: 1,
		GoalProtein:   ptr(90.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Female", p.Sex)
	assert.Equal(t, 165.1, p.HeightCm)
	assert.Equal(t, 63.5, p.WeightKg)
	assert.Equal(t, 30, p.Age)
	assert.Equal(t, 90.0, *p.GoalProtein)

	var count int64
	require.NoError(t, db.Table("profiles").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProfileUpsertValidation(t *testing.T) {
	svc := NewProfileService(newTestDB(t))
	ctx := context.Background()
	base := func() ProfileInput {
		return ProfileInput{Age: 20, Sex: "M", HeightCm: ptr(175.0), WeightKg: ptr(70.0), ActivityLevel: 3}
	}

	cases := map[string]struct {
		mutate func(*ProfileInput)
		field  string
	}{
		"bad sex":        {func(in *ProfileInput) { in.Sex = "robot" }, "sex"},
		"too young":      {func(in *ProfileInput) { in.Age = 12 }, "age"},
		"activity range": {func(in *ProfileInput) { in.ActivityLevel = 6 }, "activity_level"},
		"no height":      {func(in *ProfileInput) { in.HeightCm = nil }, "height_cm"},
		"short":          {func(in *ProfileInput) { in.HeightCm = ptr(20.0) }, "height_cm"},
		"heavy":          {func(in *ProfileInput) { in.WeightKg = ptr(900.0) }, "weight_kg"},
		"bad email":      {func(in *ProfileInput) { in.Email = ptr("nope") }, "email"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := base()
			tc.mutate(&in)
			_, err := svc.Upsert(ctx, "user-1", in)
			e := requireKind(t, err, KindValidation)
			assert.Equal(t, tc.field, e.Field)
		})
	}

	_, err := svc.Upsert(ctx, " ", base())
	requireKind(t, err, KindValidation)
}

func TestProfileUpdateRecomputes(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)
	ctx := context.Background()
	seedProfile(t, db, "user-1")

	p, err := svc.Update(ctx, "user-1", ProfileUpdate{WeightKg: ptr(80.0)})
	require.NoError(t, err)
	assert.Equal(t, 1798.75, p.BMR)
	assert.Equal(t, 2788.06, p.TDEE)
	assert.Equal(t, 20, p.Age)

	p, err = svc.Update(ctx, "user-1", ProfileUpdate{ActivityLevel: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, 2158.5, p.TDEE)

	got, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, p.TDEE, got.TDEE)
}

func TestProfileUpdateErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewProfileService(db)
	ctx := context.Background()

	_, err := svc.Update(ctx, "ghost", ProfileUpdate{Age: ptr(30)})
	e := requireKind(t, err, KindNotFound)
	assert.Equal(t, "profile", e.Entity)
	assert.Equal(t, "ghost", e.ID)

	seedProfile(t, db, "user-1")
	_, err = svc.Update(ctx, "user-1", ProfileUpdate{})
	requireKind(t, err, KindValidation)

	_, err = svc.Update(ctx, "user-1", ProfileUpdate{Sex: ptr("x")})
	requireKind(t, err, KindValidation)

	_, err = svc.Get(ctx, "ghost")
	requireKind(t, err, KindNotFound)
}
