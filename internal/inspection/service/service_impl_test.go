package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/selfix/washfleet/internal/clock"
	"github.com/selfix/washfleet/internal/config"
	inspectiondomain "github.com/selfix/washfleet/internal/inspection/domain"
	"github.com/selfix/washfleet/internal/providers/pdftext"
	statusdomain "github.com/selfix/washfleet/internal/status/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStatusSvc struct {
	snapshots map[string]statusdomain.Snapshot
}

func (f *fakeStatusSvc) Refresh(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeStatusSvc) List(ctx context.Context) ([]statusdomain.Snapshot, error) {
	return nil, nil
}

func (f *fakeStatusSvc) Get(ctx context.Context, siteCode, unitID string) (*statusdomain.Snapshot, error) {
	snap, ok := f.snapshots[siteCode+"|"+unitID]
	if !ok {
		return nil, statusdomain.ErrSnapshotNotFound
	}
	return &snap, nil
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(ctx context.Context, to []string, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *recordingMailer) CreateDraft(ctx context.Context, to []string, subject, body string) error {
	return nil
}

type inspectionFixture struct {
	svc    inspectiondomain.Service
	inbox  string
	done   string
	texts  map[string]string
	mailer *recordingMailer
}

func setupInspection(t *testing.T, snapshots map[string]statusdomain.Snapshot) *inspectionFixture {
	t.Helper()

	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	done := filepath.Join(root, "done")
	require.NoError(t, os.MkdirAll(inbox, 0o755))

	texts := map[string]string{}
	mailer := &recordingMailer{}

	cfg := config.Config{
		Inspection: config.InspectionConfig{
			InboxDir:        inbox,
			DoneDir:         done,
			ToleranceMonths: 1,
			NotifyEmail:     "maintenance@selfix.example",
			SiteAliases:     map[string]string{"Rinku Sennan": "RNK"},
		},
	}

	svc := NewService(ServiceParam{
		Log:       zap.NewNop(),
		Config:    cfg,
		Clock:     clock.NewFakeClock(time.Date(2025, time.February, 20, 10, 0, 0, 0, time.UTC)),
		Extractor: &pdftext.StaticExtractor{Texts: texts},
		Mailer:    mailer,
		StatusSvc: &fakeStatusSvc{snapshots: snapshots},
	})

	return &inspectionFixture{svc: svc, inbox: inbox, done: done, texts: texts, mailer: mailer}
}

func (f *inspectionFixture) addReport(t *testing.T, name, text string) {
	t.Helper()
	path := filepath.Join(f.inbox, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))
	f.texts[path] = text
}

const reportText = `Monthly inspection sheet
Site: Rinku Sennan No.2
Visit date: 2025/02/15
Left counter 29400
Center counter 28010
Right counter 30120
`

func TestProcessInbox_ReconcilesReadingsAgainstBaselines(t *testing.T) {
	f := setupInspection(t, map[string]statusdomain.Snapshot{
		"RNK|left":   {SiteCode: "RNK", UnitID: "left", CumulativeCount: 28000, MonthlyAverage: 1200},
		"RNK|center": {SiteCode: "RNK", UnitID: "center", CumulativeCount: 28000, MonthlyAverage: 1200},
	})
	f.addReport(t, "rinku-2025-02.pdf", reportText)

	results, err := f.svc.ProcessInbox(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Len(t, results[0].Results, 3)
	assert.Empty(t, results[0].Skipped)

	byUnit := map[string]inspectiondomain.UnitResult{}
	for _, r := range results[0].Results {
		byUnit[r.UnitID] = r
	}

	// Ref date 2025-01-31, visit 15 days later: predicted 28000 + 1200*15/30.
	left := byUnit["left"]
	require.NotNil(t, left.Comparison.Predicted)
	assert.Equal(t, int64(28600), *left.Comparison.Predicted)
	assert.Equal(t, inspectiondomain.Normal, left.Comparison.Classification)

	center := byUnit["center"]
	assert.Equal(t, inspectiondomain.Normal, center.Comparison.Classification)

	right := byUnit["right"]
	assert.Equal(t, inspectiondomain.NoBaselineData, right.Comparison.Classification)
}

func TestProcessInbox_ArchivesProcessedFiles(t *testing.T) {
	f := setupInspection(t, nil)
	f.addReport(t, "rinku-2025-02.pdf", reportText)

	_, err := f.svc.ProcessInbox(context.Background())
	require.NoError(t, err)

	remaining, err := os.ReadDir(f.inbox)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	archived, err := os.ReadDir(f.done)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "20250220T100000-rinku-2025-02.pdf", archived[0].Name())
}

func TestProcessInbox_NotifiesOnAnomalies(t *testing.T) {
	f := setupInspection(t, map[string]statusdomain.Snapshot{
		"RNK|left": {SiteCode: "RNK", UnitID: "left", CumulativeCount: 22000, MonthlyAverage: 1200},
	})
	f.addReport(t, "rinku-2025-02.pdf", reportText)

	results, err := f.svc.ProcessInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.Len(t, f.mailer.sent, 1)
	mail := f.mailer.sent[0]
	assert.Equal(t, []string{"maintenance@selfix.example"}, mail.to)
	assert.Contains(t, mail.body, "left")
	assert.Contains(t, mail.body, string(inspectiondomain.ReportTooHigh))
	// Units with no baseline are not anomalies and stay out of the mail.
	assert.NotContains(t, mail.body, "no_baseline_data")
}

func TestProcessInbox_SkipsUnparsableFiles(t *testing.T) {
	f := setupInspection(t, nil)
	f.addReport(t, "notes.pdf", "handwritten notes with no counters")

	results, err := f.svc.ProcessInbox(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Skipped)
	assert.Empty(t, results[0].Results)

	// Unparsable files still leave the inbox.
	remaining, err := os.ReadDir(f.inbox)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestProcessInbox_IgnoresNonPDFEntries(t *testing.T) {
	f := setupInspection(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.inbox, "readme.txt"), []byte("x"), 0o644))

	results, err := f.svc.ProcessInbox(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessInbox_MissingInboxIsNotAnError(t *testing.T) {
	f := setupInspection(t, nil)
	require.NoError(t, os.RemoveAll(f.inbox))

	results, err := f.svc.ProcessInbox(context.Background())
	require.NoError(t, err)
	assert.Nil(t, results)
}
