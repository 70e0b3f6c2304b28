package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupEquipment(t *testing.T) (equipmentdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&equipmentdomain.Equipment{}, &equipmentdomain.ReplacementHistory{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{DB: db, Log: zap.NewNop(), GenID: node})
	return svc, db
}

func seedUnit(t *testing.T, db *gorm.DB, eq equipmentdomain.Equipment) {
	t.Helper()
	if eq.ID == 0 {
		node, err := snowflake.NewNode(2)
		require.NoError(t, err)
		eq.ID = node.Generate()
	}
	require.NoError(t, db.Create(&eq).Error)
}

func TestGet_ValidatesIdentifiers(t *testing.T) {
	svc, _ := setupEquipment(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "  ", "1")
	assert.ErrorIs(t, err, equipmentdomain.ErrInvalidSite)

	_, err = svc.Get(ctx, "OSK", "")
	assert.ErrorIs(t, err, equipmentdomain.ErrInvalidUnit)

	_, err = svc.Get(ctx, "OSK", "1")
	assert.ErrorIs(t, err, equipmentdomain.ErrEquipmentNotFound)
}

func TestGet_TrimsIdentifiers(t *testing.T) {
	svc, db := setupEquipment(t)
	seedUnit(t, db, equipmentdomain.Equipment{SiteCode: "OSK", UnitID: "1", SiteName: "Osaka Chuo"})

	eq, err := svc.Get(context.Background(), " OSK ", " 1 ")
	require.NoError(t, err)
	assert.Equal(t, "Osaka Chuo", eq.SiteName)
}

func TestRecordReplacement_RailSetsDateOnly(t *testing.T) {
	svc, db := setupEquipment(t)
	seedUnit(t, db, equipmentdomain.Equipment{
		SiteCode: "OSK", UnitID: "1", SiteName: "Osaka Chuo",
		BrushType: equipmentdomain.BrushTypeCloth,
	})
	ctx := context.Background()

	replacedAt := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	err := svc.RecordReplacement(ctx, equipmentdomain.RecordReplacementRequest{
		SiteCode: "OSK", UnitID: "1",
		Part:            equipmentdomain.PartRailWheel,
		ReplacedAt:      replacedAt,
		CumulativeCount: 56000,
	})
	require.NoError(t, err)

	eq, err := svc.Get(ctx, "OSK", "1")
	require.NoError(t, err)
	require.NotNil(t, eq.RailReplacedAt)
	assert.Equal(t, replacedAt, eq.RailReplacedAt.UTC())
	assert.Nil(t, eq.BrushReplacedAt)
	assert.Nil(t, eq.BodyInstalledAt)

	history, err := svc.History(ctx, "OSK", "1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, equipmentdomain.PartRailWheel, history[0].Part)
	assert.Equal(t, int64(56000), history[0].CumulativeCount)
}

func TestRecordReplacement_BrushStampsCounter(t *testing.T) {
	svc, db := setupEquipment(t)
	seedUnit(t, db, equipmentdomain.Equipment{
		SiteCode: "OSK", UnitID: "1", SiteName: "Osaka Chuo",
		BrushType: equipmentdomain.BrushTypeCloth,
	})
	ctx := context.Background()

	err := svc.RecordReplacement(ctx, equipmentdomain.RecordReplacementRequest{
		SiteCode: "OSK", UnitID: "1",
		Part:            equipmentdomain.PartClothBrush,
		ReplacedAt:      time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		CumulativeCount: 36000,
	})
	require.NoError(t, err)

	eq, err := svc.Get(ctx, "OSK", "1")
	require.NoError(t, err)
	assert.NotNil(t, eq.BrushReplacedAt)
	assert.Equal(t, int64(36000), eq.BrushReplacedCount)
}

func TestRecordReplacement_BodyResetsEveryGate(t *testing.T) {
	svc, db := setupEquipment(t)
	oldRail := time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedUnit(t, db, equipmentdomain.Equipment{
		SiteCode: "OSK", UnitID: "1", SiteName: "Osaka Chuo",
		BrushType:          equipmentdomain.BrushTypeCloth,
		RailReplacedAt:     &oldRail,
		BrushReplacedCount: 36000,
		PendingWorkNote:    "order rail wheels",
	})
	ctx := context.Background()

	installedAt := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	err := svc.RecordReplacement(ctx, equipmentdomain.RecordReplacementRequest{
		SiteCode: "OSK", UnitID: "1",
		Part:            equipmentdomain.PartBody,
		ReplacedAt:      installedAt,
		CumulativeCount: 101000,
	})
	require.NoError(t, err)

	eq, err := svc.Get(ctx, "OSK", "1")
	require.NoError(t, err)
	require.NotNil(t, eq.BodyInstalledAt)
	assert.Equal(t, installedAt, eq.BodyInstalledAt.UTC())
	assert.Equal(t, installedAt, eq.RailReplacedAt.UTC())
	assert.Equal(t, installedAt, eq.BrushReplacedAt.UTC())
	assert.Zero(t, eq.BrushReplacedCount)
	assert.Empty(t, eq.PendingWorkNote)
}

func TestRecordReplacement_Validation(t *testing.T) {
	svc, db := setupEquipment(t)
	seedUnit(t, db, equipmentdomain.Equipment{SiteCode: "OSK", UnitID: "1", SiteName: "Osaka Chuo"})
	ctx := context.Background()

	err := svc.RecordReplacement(ctx, equipmentdomain.RecordReplacementRequest{
		SiteCode: "OSK", UnitID: "1",
		Part:       equipmentdomain.Part("gearbox"),
		ReplacedAt: time.Now(),
	})
	assert.ErrorIs(t, err, equipmentdomain.ErrInvalidPart)

	err = svc.RecordReplacement(ctx, equipmentdomain.RecordReplacementRequest{
		SiteCode: "OSK", UnitID: "1",
		Part: equipmentdomain.PartRailWheel,
	})
	assert.ErrorIs(t, err, equipmentdomain.ErrInvalidDate)

	err = svc.RecordReplacement(ctx, equipmentdomain.RecordReplacementRequest{
		SiteCode: "NGY", UnitID: "1",
		Part:       equipmentdomain.PartRailWheel,
		ReplacedAt: time.Now(),
	})
	assert.ErrorIs(t, err, equipmentdomain.ErrEquipmentNotFound)
}

func TestSaveWorkNote(t *testing.T) {
	svc, db := setupEquipment(t)
	seedUnit(t, db, equipmentdomain.Equipment{SiteCode: "OSK", UnitID: "1", SiteName: "Osaka Chuo"})
	ctx := context.Background()

	require.NoError(t, svc.SaveWorkNote(ctx, "OSK", "1", "  check rail wear  "))

	eq, err := svc.Get(ctx, "OSK", "1")
	require.NoError(t, err)
	assert.Equal(t, "check rail wear", eq.PendingWorkNote)

	err = svc.SaveWorkNote(ctx, "OSK", "99", "x")
	assert.ErrorIs(t, err, equipmentdomain.ErrEquipmentNotFound)
}

func TestHistory_NewestFirst(t *testing.T) {
	svc, db := setupEquipment(t)
	seedUnit(t, db, equipmentdomain.Equipment{SiteCode: "OSK", UnitID: "1", SiteName: "Osaka Chuo"})
	ctx := context.Background()

	for _, at := range []time.Time{
		time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
	} {
		err := svc.RecordReplacement(ctx, equipmentdomain.RecordReplacementRequest{
			SiteCode: "OSK", UnitID: "1",
			Part:       equipmentdomain.PartRailWheel,
			ReplacedAt: at,
		})
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, "OSK", "1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].ReplacedAt.After(history[1].ReplacedAt))
}
