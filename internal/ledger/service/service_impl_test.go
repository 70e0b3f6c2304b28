package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	equipmentdomain "github.com/selfix/washfleet/internal/equipment/domain"
	ledgerdomain "github.com/selfix/washfleet/internal/ledger/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeEquipmentSvc struct {
	units []equipmentdomain.Equipment
}

func (f *fakeEquipmentSvc) List(ctx context.Context) ([]equipmentdomain.Equipment, error) {
	return f.units, nil
}

func (f *fakeEquipmentSvc) Get(ctx context.Context, siteCode, unitID string) (*equipmentdomain.Equipment, error) {
	for i := range f.units {
		if f.units[i].SiteCode == siteCode && f.units[i].UnitID == unitID {
			return &f.units[i], nil
		}
	}
	return nil, equipmentdomain.ErrEquipmentNotFound
}

func (f *fakeEquipmentSvc) RecordReplacement(ctx context.Context, req equipmentdomain.RecordReplacementRequest) error {
	return nil
}

func (f *fakeEquipmentSvc) SaveWorkNote(ctx context.Context, siteCode, unitID, note string) error {
	return nil
}

func (f *fakeEquipmentSvc) History(ctx context.Context, siteCode, unitID string) ([]equipmentdomain.ReplacementHistory, error) {
	return nil, nil
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func setupLedger(t *testing.T, units []equipmentdomain.Equipment) (ledgerdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ledgerdomain.UsageRecord{}, &ledgerdomain.UsageRecordBackup{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		EquipmentSvc: &fakeEquipmentSvc{units: units},
	})
	return svc, db
}

func registeredUnit(siteCode, unitID string, installedAt *time.Time) equipmentdomain.Equipment {
	return equipmentdomain.Equipment{
		SiteCode:        siteCode,
		UnitID:          unitID,
		SiteName:        siteCode + " station",
		BrushType:       equipmentdomain.BrushTypeCloth,
		BodyInstalledAt: installedAt,
	}
}

func TestApplyDailySubmissions_ChainsWithinBatch(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})
	ctx := context.Background()

	written, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-02", DailyCount: 120},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	jan, err := svc.GetMonth(ctx, "OSK", "1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, int64(100), jan.CumulativeCount)

	feb, err := svc.GetMonth(ctx, "OSK", "1", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, int64(220), feb.CumulativeCount)
}

func TestApplyDailySubmissions_LastWriteWins(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 100},
	})
	require.NoError(t, err)

	_, err = svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 70},
	})
	require.NoError(t, err)

	jan, err := svc.GetMonth(ctx, "OSK", "1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, int64(70), jan.DailyCount)
	assert.Equal(t, int64(70), jan.CumulativeCount)

	records, err := svc.List(ctx, "OSK", "1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestApplyDailySubmissions_TrimsIdentifiers(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: " OSK ", UnitID: "1 ", Period: "2024-01", DailyCount: 50},
	})
	require.NoError(t, err)

	jan, err := svc.GetMonth(ctx, "OSK", "1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, int64(50), jan.CumulativeCount)
}

func TestApplyDailySubmissions_RejectsUnknownUnit(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})

	_, err := svc.ApplyDailySubmissions(context.Background(), []ledgerdomain.DailySubmission{
		{SiteCode: "NGY", UnitID: "9", Period: "2024-01", DailyCount: 10},
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrUnknownUnit)

	_, err = svc.ApplyDailySubmissions(context.Background(), []ledgerdomain.DailySubmission{
		{SiteCode: "  ", UnitID: "1", Period: "2024-01", DailyCount: 10},
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidSite)
}

func TestApplyDailySubmissions_ResetAtInstallMonth(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{
		registeredUnit("OSK", "1", date(2024, time.March, 15)),
	})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 900},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-02", DailyCount: 800},
	})
	require.NoError(t, err)

	// March is the install month; the February history does not carry over.
	_, err = svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-03", DailyCount: 250},
	})
	require.NoError(t, err)

	mar, err := svc.GetMonth(ctx, "OSK", "1", "2024-03")
	require.NoError(t, err)
	assert.Equal(t, int64(250), mar.CumulativeCount)
}

func TestRecalculateAll_ResetAndMonotonic(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{
		registeredUnit("OSK", "1", date(2024, time.March, 1)),
	})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 900},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-02", DailyCount: 800},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-03", DailyCount: 250},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-04", DailyCount: 300},
	})
	require.NoError(t, err)

	result, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)

	records, err := svc.List(ctx, "OSK", "1")
	require.NoError(t, err)
	require.Len(t, records, 4)

	byPeriod := make(map[string]int64, len(records))
	for _, rec := range records {
		byPeriod[rec.Period] = rec.CumulativeCount
	}
	assert.Equal(t, int64(0), byPeriod["2024-01"])
	assert.Equal(t, int64(0), byPeriod["2024-02"])
	assert.Equal(t, int64(250), byPeriod["2024-03"])
	assert.Equal(t, int64(550), byPeriod["2024-04"])

	var prev int64 = -1
	for _, rec := range records[2:] {
		assert.GreaterOrEqual(t, rec.CumulativeCount, prev)
		prev = rec.CumulativeCount
	}
}

func TestRecalculateAll_Idempotent(t *testing.T) {
	svc, db := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 100},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-02", DailyCount: 150},
	})
	require.NoError(t, err)

	// Corrupt one cumulative value; the first run must fix it.
	require.NoError(t, db.Model(&ledgerdomain.UsageRecord{}).
		Where("period = ?", "2024-02").
		Update("cumulative_count", 9999).Error)

	first, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.UpdatedRows)

	second, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.UpdatedRows)

	feb, err := svc.GetMonth(ctx, "OSK", "1", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, int64(250), feb.CumulativeCount)
}

func TestRecalculateAll_TakesBackupBeforeMutation(t *testing.T) {
	svc, db := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 100},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&ledgerdomain.UsageRecord{}).
		Where("period = ?", "2024-01").
		Update("cumulative_count", 12345).Error)

	result, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)

	var backups []ledgerdomain.UsageRecordBackup
	require.NoError(t, db.Where("run_id = ?", result.RunID).Find(&backups).Error)
	require.Len(t, backups, 1)
	assert.Equal(t, int64(12345), backups[0].CumulativeCount)

	jan, err := svc.GetMonth(ctx, "OSK", "1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, int64(100), jan.CumulativeCount)
}

func TestCorrectMonth_RecomputesWithoutCascade(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 100},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-02", DailyCount: 150},
	})
	require.NoError(t, err)

	require.NoError(t, svc.CorrectMonth(ctx, "OSK", "1", "2024-01", 130))

	jan, err := svc.GetMonth(ctx, "OSK", "1", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, int64(130), jan.CumulativeCount)

	// February keeps its stale value until a full recalculation.
	feb, err := svc.GetMonth(ctx, "OSK", "1", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, int64(250), feb.CumulativeCount)
}

func TestCorrectMonth_NotFound(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})

	err := svc.CorrectMonth(context.Background(), "OSK", "1", "2030-01", 42)
	assert.ErrorIs(t, err, ledgerdomain.ErrRecordNotFound)
}

func TestCorrectMonthByCumulative_RoundTrip(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 100},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-02", DailyCount: 150},
	})
	require.NoError(t, err)

	require.NoError(t, svc.CorrectMonthByCumulative(ctx, "OSK", "1", "2024-02", 280))

	feb, err := svc.GetMonth(ctx, "OSK", "1", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, int64(180), feb.DailyCount)
	assert.Equal(t, int64(280), feb.CumulativeCount)

	// Re-applying the implied daily count reproduces the pinned value.
	require.NoError(t, svc.CorrectMonth(ctx, "OSK", "1", "2024-02", feb.DailyCount))

	feb, err = svc.GetMonth(ctx, "OSK", "1", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, int64(280), feb.CumulativeCount)
}

func TestCorrectMonthByCumulative_ClampsNegativeDaily(t *testing.T) {
	svc, _ := setupLedger(t, []equipmentdomain.Equipment{registeredUnit("OSK", "1", nil)})
	ctx := context.Background()

	_, err := svc.ApplyDailySubmissions(ctx, []ledgerdomain.DailySubmission{
		{SiteCode: "OSK", UnitID: "1", Period: "2024-01", DailyCount: 100},
		{SiteCode: "OSK", UnitID: "1", Period: "2024-02", DailyCount: 150},
	})
	require.NoError(t, err)

	require.NoError(t, svc.CorrectMonthByCumulative(ctx, "OSK", "1", "2024-02", 60))

	feb, err := svc.GetMonth(ctx, "OSK", "1", "2024-02")
	require.NoError(t, err)
	assert.Zero(t, feb.DailyCount)
	assert.Equal(t, int64(60), feb.CumulativeCount)
}
