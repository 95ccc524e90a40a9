// Package config loads the pipeline's environment-driven settings and its
// static source registry, following the fail-open, warn-and-fallback
// pattern used throughout this codebase for configuration loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	pkgconfig "trendpulse/internal/pkg/config"
)

// PipelineConfig holds every PIPELINE_* / provider-credential setting the
// orchestrator, scorer and enricher read at startup.
type PipelineConfig struct {
	RankedKeywords           int
	DetailedKeywords         int
	KeywordConcurrency       int
	LightweightConcurrency   int
	ScheduleUTC              []ScheduleSlot
	EnableEnSummary          bool
	SummaryContextLimit      int
	ReuseWindowSnapshots     int

	OpenAIModel    string
	OpenAIAPIKey   string
	TavilyAPIKey   string
	GitHubToken    string
	CronSecret     string
	DatabaseURL    string
}

// ScheduleSlot is one UTC HH:MM entry in PIPELINE_SCHEDULE_UTC.
type ScheduleSlot struct {
	Hour   int
	Minute int
}

// DefaultReuseWindowSnapshots is M from spec §4.7: the last-M-snapshots
// reuse-cache lookback window (default 4, approximately 48h at 4x/day).
const DefaultReuseWindowSnapshots = 4

// LoadPipelineConfig reads every PIPELINE_* and provider-credential
// environment variable, logging a warning and substituting a safe default
// for anything missing or out of range. It never fails: only DATABASE_URL
// absence is treated as fatal by the caller (cmd/worker), per spec §7's
// "Configuration failures... fatal at startup" rule.
func LoadPipelineConfig(logger *slog.Logger) *PipelineConfig {
	cfg := &PipelineConfig{}

	rk := pkgconfig.LoadEnvInt("PIPELINE_TOP_R", 20, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 100)
	})
	logWarnings(logger, "PIPELINE_TOP_R", rk)
	cfg.RankedKeywords = rk.Value.(int)

	dk := pkgconfig.LoadEnvInt("PIPELINE_DETAILED_KEYWORDS", 10, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 20)
	})
	logWarnings(logger, "PIPELINE_DETAILED_KEYWORDS", dk)
	cfg.DetailedKeywords = dk.Value.(int)

	kc := pkgconfig.LoadEnvInt("PIPELINE_KEYWORD_CONCURRENCY", 3, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 10)
	})
	logWarnings(logger, "PIPELINE_KEYWORD_CONCURRENCY", kc)
	cfg.KeywordConcurrency = kc.Value.(int)

	lc := pkgconfig.LoadEnvInt("PIPELINE_LIGHTWEIGHT_CONCURRENCY", 5, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 20)
	})
	logWarnings(logger, "PIPELINE_LIGHTWEIGHT_CONCURRENCY", lc)
	cfg.LightweightConcurrency = lc.Value.(int)

	scl := pkgconfig.LoadEnvWithFallback("PIPELINE_SCHEDULE_UTC", "0:17,9:17", validateScheduleUTC)
	logWarnings(logger, "PIPELINE_SCHEDULE_UTC", scl)
	slots, err := parseScheduleUTC(scl.Value.(string))
	if err != nil {
		logger.Warn("falling back to default pipeline schedule", slog.Any("error", err))
		slots, _ = parseScheduleUTC("0:17,9:17")
	}
	cfg.ScheduleUTC = slots

	cfg.EnableEnSummary = pkgconfig.GetEnvBool("ENABLE_EN_SUMMARY", true)

	scLimit := pkgconfig.LoadEnvInt("SUMMARY_CONTEXT_LIMIT", 5, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 10)
	})
	logWarnings(logger, "SUMMARY_CONTEXT_LIMIT", scLimit)
	cfg.SummaryContextLimit = scLimit.Value.(int)

	cfg.ReuseWindowSnapshots = DefaultReuseWindowSnapshots

	cfg.OpenAIModel = pkgconfig.GetEnvString("OPENAI_MODEL", "gpt-4o-mini")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	cfg.CronSecret = os.Getenv("CRON_SECRET")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("POSTGRES_URL")
	}

	return cfg
}

func logWarnings(logger *slog.Logger, key string, r pkgconfig.ConfigLoadResult) {
	if !r.FallbackApplied {
		return
	}
	for _, w := range r.Warnings {
		logger.Warn("config fallback applied", slog.String("key", key), slog.String("detail", w))
	}
}

func validateScheduleUTC(s string) error {
	_, err := parseScheduleUTC(s)
	return err
}

func parseScheduleUTC(s string) ([]ScheduleSlot, error) {
	parts := strings.Split(s, ",")
	slots := make([]ScheduleSlot, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		hm := strings.SplitN(p, ":", 2)
		if len(hm) != 2 {
			return nil, fmt.Errorf("invalid schedule slot %q: expected HH:MM", p)
		}
		h, err := strconv.Atoi(hm[0])
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("invalid schedule hour in %q", p)
		}
		m, err := strconv.Atoi(hm[1])
		if err != nil || m < 0 || m > 59 {
			return nil, fmt.Errorf("invalid schedule minute in %q", p)
		}
		slots = append(slots, ScheduleSlot{Hour: h, Minute: m})
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("schedule must contain at least one HH:MM slot")
	}
	return slots, nil
}

// NextUpdateAtUTC computes the next scheduled run after now, per spec §4.8
// and §8's schedule-computation scenario: the next slot strictly later
// today, else the first slot of the following day.
func (c *PipelineConfig) NextUpdateAtUTC(now time.Time) time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var best *time.Time
	for _, slot := range c.ScheduleUTC {
		candidate := today.Add(time.Duration(slot.Hour)*time.Hour + time.Duration(slot.Minute)*time.Minute)
		if candidate.After(now) {
			if best == nil || candidate.Before(*best) {
				best = &candidate
			}
		}
	}
	if best != nil {
		return *best
	}

	// No slot remains today; use the earliest slot tomorrow.
	tomorrow := today.AddDate(0, 0, 1)
	earliest := c.ScheduleUTC[0]
	for _, slot := range c.ScheduleUTC[1:] {
		if slot.Hour < earliest.Hour || (slot.Hour == earliest.Hour && slot.Minute < earliest.Minute) {
			earliest = slot
		}
	}
	return tomorrow.Add(time.Duration(earliest.Hour)*time.Hour + time.Duration(earliest.Minute)*time.Minute)
}
