package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
)

// Config is passed by value into every component. Nothing in the engine
// reads process-wide settings on its own.
type Config struct {
	SubmissionsDir string `toml:"submissions_dir"`
	ImageDir       string `toml:"image_dir"`
	ImageURLPrefix string `toml:"image_url_prefix"`
	SaveDir        string `toml:"save_dir"`
	RosterDir      string `toml:"roster_dir"`
	DatesDir       string `toml:"dates_dir"`

	Naming  Naming  `toml:"naming"`
	Grading Grading `toml:"grading"`
	Render  Render  `toml:"render"`
	HTTP    HTTP    `toml:"http"`
	Export  Export  `toml:"export"`
}

// Naming holds the conventions used by the LMS export directories.
type Naming struct {
	AssignmentDelimiter string `toml:"assignment_delimiter"`
	OrdinalPattern      string `toml:"ordinal_pattern"`
	DetailMarker        string `toml:"detail_marker"`
	AnswerMarker        string `toml:"answer_marker"`
	RosterPattern       string `toml:"roster_pattern"`
}

type Thresholds struct {
	S float64 `toml:"s" json:"s"`
	A float64 `toml:"a" json:"a"`
	B float64 `toml:"b" json:"b"`
	C float64 `toml:"c" json:"c"`
}

type Grading struct {
	Thresholds         Thresholds `toml:"thresholds"`
	DelayThresholdDays int        `toml:"delay_threshold_days"`
	RatioDetailOnly    float64    `toml:"ratio_detail_only"`
	RatioAnswerOnly    float64    `toml:"ratio_answer_only"`
	RatioDuplicate     float64    `toml:"ratio_duplicate"`
	RatioLate          float64    `toml:"ratio_late"`
	RatioVeryLate      float64    `toml:"ratio_very_late"`
}

type Render struct {
	DPI         int    `toml:"dpi"`
	MaxWidthPx  uint   `toml:"max_width_px"`
	PdftoppmBin string `toml:"pdftoppm_bin"`
}

type HTTP struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Export configures where exported report workbooks go. An empty bucket
// keeps exports on the local disk.
type Export struct {
	S3Bucket string `toml:"s3_bucket"`
	S3Region string `toml:"s3_region"`
	S3Prefix string `toml:"s3_prefix"`
}

// Default returns the configuration the grader ships with. All
// directories live under baseDir.
func Default(baseDir string) Config {
	return Config{
		SubmissionsDir: filepath.Join(baseDir, "storage", "pdf"),
		ImageDir:       filepath.Join(baseDir, "storage", "pdf_images"),
		ImageURLPrefix: "pdf_images",
		SaveDir:        filepath.Join(baseDir, "storage", "save", "pdf"),
		RosterDir:      filepath.Join(baseDir, "storage", "roster"),
		DatesDir:       filepath.Join(baseDir, "storage", "dates"),
		Naming: Naming{
			AssignmentDelimiter: "の提出",
			OrdinalPattern:      `第(\d+)回`,
			DetailMarker:        "詳細",
			AnswerMarker:        "解答のみ",
			RosterPattern:       "*名簿*",
		},
		Grading: Grading{
			Thresholds:         Thresholds{S: 90, A: 80, B: 70, C: 60},
			DelayThresholdDays: 15,
			RatioDetailOnly:    0.7,
			RatioAnswerOnly:    0.3,
			RatioDuplicate:     0.5,
			RatioLate:          0.8,
			RatioVeryLate:      0.5,
		},
		Render: Render{
			DPI:         150,
			MaxWidthPx:  1600,
			PdftoppmBin: "pdftoppm",
		},
		HTTP: HTTP{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Export: Export{
			S3Region: "eu-central-1",
			S3Prefix: "reports/",
		},
	}
}

// Load reads the TOML file at path on top of Default and then applies
// GRADER_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	baseDir := filepath.Dir(path)
	if v := os.Getenv("GRADER_BASE_DIR"); v != "" {
		baseDir = v
	}
	cfg := Default(baseDir)

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, replacing the previous file in one step.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := renameio.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (cfg *Config) applyEnv() error {
	strVars := map[string]*string{
		"GRADER_SUBMISSIONS_DIR": &cfg.SubmissionsDir,
		"GRADER_IMAGE_DIR":       &cfg.ImageDir,
		"GRADER_SAVE_DIR":        &cfg.SaveDir,
		"GRADER_ROSTER_DIR":      &cfg.RosterDir,
		"GRADER_DATES_DIR":       &cfg.DatesDir,
		"GRADER_HTTP_ADDR":       &cfg.HTTP.Addr,
		"GRADER_S3_BUCKET":       &cfg.Export.S3Bucket,
		"GRADER_S3_REGION":       &cfg.Export.S3Region,
		"GRADER_PDFTOPPM_BIN":    &cfg.Render.PdftoppmBin,
	}
	for key, dst := range strVars {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("GRADER_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitCsv(v)
	}
	if v := os.Getenv("GRADER_DELAY_THRESHOLD_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GRADER_DELAY_THRESHOLD_DAYS %q: %w", v, err)
		}
		cfg.Grading.DelayThresholdDays = days
	}
	return nil
}

func splitCsv(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate rejects ratios outside [0, 1], a very-late ratio above the
// late ratio, thresholds that are not descending and a negative delay
// threshold.
func (cfg Config) Validate() error {
	g := cfg.Grading
	ratios := []struct {
		name  string
		value float64
	}{
		{"ratio_detail_only", g.RatioDetailOnly},
		{"ratio_answer_only", g.RatioAnswerOnly},
		{"ratio_duplicate", g.RatioDuplicate},
		{"ratio_late", g.RatioLate},
		{"ratio_very_late", g.RatioVeryLate},
	}
	for _, r := range ratios {
		if r.value < 0 || r.value > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", r.name, r.value)
		}
	}
	if g.RatioVeryLate > g.RatioLate {
		return fmt.Errorf("ratio_very_late must not exceed ratio_late, got %v > %v", g.RatioVeryLate, g.RatioLate)
	}
	th := g.Thresholds
	if !(th.S >= th.A && th.A >= th.B && th.B >= th.C) {
		return fmt.Errorf("grade thresholds must be descending, got S=%v A=%v B=%v C=%v", th.S, th.A, th.B, th.C)
	}
	if g.DelayThresholdDays < 0 {
		return fmt.Errorf("delay_threshold_days must not be negative, got %d", g.DelayThresholdDays)
	}
	if cfg.Naming.AssignmentDelimiter == "" {
		return fmt.Errorf("naming.assignment_delimiter must not be empty")
	}
	return nil
}

// EnsureDirs creates the working directories if they are missing.
func (cfg Config) EnsureDirs() error {
	for _, dir := range []string{cfg.SubmissionsDir, cfg.ImageDir, cfg.SaveDir, cfg.RosterDir, cfg.DatesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
