package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the process-wide configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config holds application configuration. Loaded once per process and
// passed explicitly; engines never read the environment themselves.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Maintenance MaintenanceConfig
	Inspection  InspectionConfig
	Mail        MailConfig
	Vendors     VendorConfig
}

// MaintenanceConfig carries the wear-part replacement policy.
type MaintenanceConfig struct {
	RailThreshold        int64
	BrushFirstThreshold  int64
	BrushSecondThreshold int64
	BodyThreshold        int64
	ForecastMonths       int
	BrushWarningMonths   int

	// Sites matched by substring against the site name qualify for the
	// equipment subsidy and must not be replaced before the lock expires.
	SubsidySites     []string
	SubsidyLockYears int
}

// InspectionConfig controls the inspection-report reconciliation pipeline.
type InspectionConfig struct {
	InboxDir        string
	DoneDir         string
	ToleranceMonths float64
	NotifyEmail     string
	// SiteAliases maps site name variants found in OCR text to site codes,
	// e.g. "Rinku Sennan=RNK".
	SiteAliases map[string]string
}

// MailConfig configures the SMTP provider and the draft outbox.
type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	DraftDir     string
}

// VendorConfig carries quote-request recipients.
type VendorConfig struct {
	MachineVendorEmail string
	BlowerVendorEmail  string
	// Sites that keep their existing splash blower when the machine body is
	// replaced.
	BlowerExcludedSites []string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "washfleet"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "washfleet"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		Maintenance: MaintenanceConfig{
			RailThreshold:        getenvInt64("RAIL_THRESHOLD", 55000),
			BrushFirstThreshold:  getenvInt64("BRUSH_FIRST_THRESHOLD", 35000),
			BrushSecondThreshold: getenvInt64("BRUSH_SECOND_THRESHOLD", 70000),
			BodyThreshold:        getenvInt64("BODY_THRESHOLD", 100000),
			ForecastMonths:       getenvInt("BODY_FORECAST_MONTHS", 15),
			BrushWarningMonths:   getenvInt("BRUSH_WARNING_MONTHS", 18),
			SubsidySites:         getenvList("SUBSIDY_SITES", nil),
			SubsidyLockYears:     getenvInt("SUBSIDY_LOCK_YEARS", 8),
		},
		Inspection: InspectionConfig{
			InboxDir:        getenv("INSPECTION_INBOX_DIR", "data/inspection/inbox"),
			DoneDir:         getenv("INSPECTION_DONE_DIR", "data/inspection/done"),
			ToleranceMonths: getenvFloat("INSPECTION_TOLERANCE_MONTHS", 1),
			NotifyEmail:     getenv("INSPECTION_NOTIFY_EMAIL", ""),
			SiteAliases:     getenvMap("INSPECTION_SITE_ALIASES"),
		},
		Mail: MailConfig{
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "maintenance@washfleet.local"),
			DraftDir:     getenv("MAIL_DRAFT_DIR", "data/mail/drafts"),
		},
		Vendors: VendorConfig{
			MachineVendorEmail:  getenv("MACHINE_VENDOR_EMAIL", ""),
			BlowerVendorEmail:   getenv("BLOWER_VENDOR_EMAIL", ""),
			BlowerExcludedSites: getenvList("BLOWER_EXCLUDED_SITES", nil),
		},
	}
}

// SchedulerInterval returns the cadence of the background refresh loop.
func SchedulerInterval() time.Duration {
	return getenvDuration("SCHEDULER_INTERVAL", time.Hour)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getenvMap(key string) map[string]string {
	raw := strings.TrimSpace(os.Getenv(key))
	out := map[string]string{}
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
