package synth

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mindweave/mindweave/ai"
	"github.com/mindweave/mindweave/journey"
)

// BaseStatement seeds one synthetic user with a real labeled statement.
type BaseStatement struct {
	Statement          string                        `json:"statement"`
	MentalHealthStatus string                        `json:"mental_health_status"`
	OverallSeverity    float64                       `json:"overall_severity"`
	PrimaryDistortion  journey.DistortionType        `json:"primary_distortion"`
	Distortions        []journey.DistortionDetection `json:"distortions,omitempty"`
}

// GeneratorConfig controls cohort generation.
type GeneratorConfig struct {
	NumUsers       int
	EntriesPerWeek int
	Concurrency    int
	// CallInterval paces LLM calls across all workers.
	CallInterval time.Duration
	// Seed makes profile sampling and noise reproducible.
	Seed int64
	// CheckpointPath, when set, saves the finished journeys after each
	// completion so a crashed run loses at most the in-flight ones.
	CheckpointPath string
}

// DefaultGeneratorConfig returns the defaults used by the CLI.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		NumUsers:       10,
		EntriesPerWeek: 2,
		Concurrency:    2,
		CallInterval:   300 * time.Millisecond,
		Seed:           42,
	}
}

// Generator produces synthetic user journeys through the LLM collaborator.
type Generator struct {
	chat      ai.ChatService
	extractor *ai.Extractor
	limiter   *ai.RateLimiter
	config    GeneratorConfig
}

// NewGenerator creates a generator.
func NewGenerator(chat ai.ChatService, config GeneratorConfig) *Generator {
	if config.NumUsers < 1 {
		config.NumUsers = 1
	}
	if config.EntriesPerWeek < 1 {
		config.EntriesPerWeek = 1
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Generator{
		chat:      chat,
		extractor: ai.NewExtractor(chat),
		limiter:   ai.NewRateLimiter(config.CallInterval, 1),
		config:    config,
	}
}

// profile is the sampled identity of one synthetic user.
type profile struct {
	userID        string
	journeyType   journey.JourneyType
	base          BaseStatement
	initialStatus string
}

// GenerateCohort samples NumUsers statements and generates one journey per
// user. Journeys are generated concurrently; LLM calls are rate-limited
// across workers. A failed journey fails the whole batch.
func (g *Generator) GenerateCohort(ctx context.Context, base []BaseStatement) ([]*journey.UserJourney, error) {
	if len(base) == 0 {
		return nil, errors.New("no base statements to sample from")
	}

	rng := rand.New(rand.NewSource(g.config.Seed))
	profiles := make([]profile, g.config.NumUsers)
	for i := range profiles {
		stmt := base[rng.Intn(len(base))]
		profiles[i] = profile{
			userID:        "user_" + strings.ReplaceAll(uuid.NewString()[:8], "-", ""),
			journeyType:   journey.JourneyTypes[rng.Intn(len(journey.JourneyTypes))],
			base:          stmt,
			initialStatus: stmt.MentalHealthStatus,
		}
	}

	journeys := make([]*journey.UserJourney, len(profiles))
	var checkpointMu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Concurrency)
	for i, p := range profiles {
		i, p := i, p
		// Derived seed keeps each journey's noise reproducible regardless of
		// worker scheduling.
		seed := g.config.Seed + int64(i)*7919
		eg.Go(func() error {
			j, err := g.generateJourney(egCtx, p, rand.New(rand.NewSource(seed)))
			if err != nil {
				return errors.Wrapf(err, "journey for %s", p.userID)
			}
			journeys[i] = j

			if g.config.CheckpointPath != "" {
				checkpointMu.Lock()
				g.checkpoint(journeys)
				checkpointMu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slog.Info("cohort generated", "users", len(journeys))
	return journeys, nil
}

// checkpoint persists the journeys finished so far. Failures are logged and
// swallowed: a broken checkpoint must not abort generation.
func (g *Generator) checkpoint(journeys []*journey.UserJourney) {
	done := make([]*journey.UserJourney, 0, len(journeys))
	for _, j := range journeys {
		if j != nil {
			done = append(done, j)
		}
	}
	if err := journey.SaveJourneys(g.config.CheckpointPath, done); err != nil {
		slog.Warn("checkpoint write failed", "path", g.config.CheckpointPath, "error", err)
	}
}

func (g *Generator) generateJourney(ctx context.Context, p profile, rng *rand.Rand) (*journey.UserJourney, error) {
	template := Templates[p.journeyType]

	j := &journey.UserJourney{
		UserID:            p.userID,
		JourneyType:       p.journeyType,
		InitialSeverity:   p.base.OverallSeverity,
		PrimaryDistortion: p.base.PrimaryDistortion,
		BaseStatement:     p.base.Statement,
		DurationWeeks:     template.DurationWeeks,
	}

	now := time.Now()
	for week := 1; week <= template.DurationWeeks; week++ {
		for seq := 0; seq < g.config.EntriesPerWeek; seq++ {
			severity := g.scheduledSeverity(p, template, week, rng)

			text, err := g.generateEntryText(ctx, p, template, week, severity, j.Entries)
			if err != nil {
				return nil, err
			}

			extraction, err := g.extract(ctx, text, severity)
			if err != nil {
				return nil, err
			}

			daysOffset := (week-1)*7 + seq*3
			j.Entries = append(j.Entries, journey.JournalEntry{
				Week:             week,
				Timestamp:        now.AddDate(0, 0, -daysOffset),
				EntryText:        text,
				Distortions:      extraction.Distortions,
				MeasuredSeverity: extraction.MeasuredSeverity,
			})
		}
	}

	j.Finalize()
	return j, nil
}

// scheduledSeverity interpolates the template trajectory and adds gaussian
// noise, clamped to [0.1, 1].
func (g *Generator) scheduledSeverity(p profile, template JourneyTemplate, week int, rng *rand.Rand) float64 {
	progress := float64(week) / float64(template.DurationWeeks)
	severity := p.base.OverallSeverity + template.DistortionChange*progress
	severity = clampSeverity(severity)
	severity += rng.NormFloat64() * 0.1
	return clampSeverity(severity)
}

func (g *Generator) generateEntryText(ctx context.Context, p profile, template JourneyTemplate, week int, severity float64, previous []journey.JournalEntry) (string, error) {
	if err := g.limiter.Wait(ctx, "chat"); err != nil {
		return "", err
	}

	text, err := g.chat.Chat(ctx, ai.ChatRequest{
		Messages:    []ai.Message{{Role: "user", Content: buildEntryPrompt(p, template, week, severity, previous)}},
		Temperature: 0.8,
		MaxTokens:   500,
	})
	if err != nil {
		return "", errors.Wrap(err, "generate entry text")
	}
	return strings.Trim(strings.TrimSpace(text), "\"`"), nil
}

func (g *Generator) extract(ctx context.Context, text string, expectedSeverity float64) (*ai.Extraction, error) {
	if err := g.limiter.Wait(ctx, "chat"); err != nil {
		return nil, err
	}
	extraction, err := g.extractor.Extract(ctx, text, expectedSeverity)
	if err != nil {
		// A single failed extraction degrades to an unlabeled entry instead
		// of losing the whole journey.
		slog.Warn("extraction failed, keeping entry unlabeled", "error", err)
		return &ai.Extraction{MeasuredSeverity: expectedSeverity}, nil
	}
	return extraction, nil
}

func buildEntryPrompt(p profile, template JourneyTemplate, week int, severity float64, previous []journey.JournalEntry) string {
	var context string
	if n := len(previous); n > 0 {
		recent := previous[max(0, n-2):]
		var snippets []string
		for _, e := range recent {
			snippets = append(snippets, truncate(e.EntryText, 100))
		}
		context = "Previous entries: " + strings.Join(snippets, " | ")
	}

	intervention := template.InterventionNote
	if intervention == "" {
		intervention = "none"
	}

	expected := "few"
	if severity > 0.7 {
		expected = "many"
	} else if severity > 0.4 {
		expected = "moderate"
	}

	return fmt.Sprintf(`Generate a realistic mental health journal entry for this person:

Profile:
- Mental health status: %s
- Primary distortion pattern: %s
- Journey type: %s
- Week %d of %d (progress: %.0f%%)
- Current severity: %.2f (0=none, 1=severe)
- Intervention: %s

%s

Base their struggles on: %q

Requirements:
1. Write 3-5 sentences in first person
2. Reflect current severity level and trajectory
3. Show realistic progression (not linear - some setbacks)
4. Include specific situations/triggers
5. If an intervention exists, mention it naturally

IMPORTANT: Include cognitive distortions appropriate to severity level.
At severity %.2f, expect %s distortions.

Return ONLY the journal entry text, no preamble.`,
		p.initialStatus,
		p.base.PrimaryDistortion,
		p.journeyType,
		week, template.DurationWeeks, float64(week)/float64(template.DurationWeeks)*100,
		severity,
		intervention,
		context,
		p.base.Statement,
		severity, expected)
}

func clampSeverity(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
