// Package ingest turns a raw mental-health statements CSV into labeled base
// statements that seed synthetic cohorts. Statements are filtered, sampled,
// and labeled for cognitive distortions by the LLM collaborator.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mindweave/mindweave/ai"
	"github.com/mindweave/mindweave/journey"
	"github.com/mindweave/mindweave/synth"
)

// Statuses accepted from the raw dataset.
var acceptedStatuses = map[string]bool{
	"Depression": true,
	"Anxiety":    true,
	"Stress":     true,
}

const minStatementLength = 100

// Config controls dataset ingestion.
type Config struct {
	// SampleSize caps how many statements get labeled; 0 labels all.
	SampleSize  int
	Concurrency int
	// CallInterval paces labeling calls across workers.
	CallInterval time.Duration
	Seed         int64
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		SampleSize:   500,
		Concurrency:  2,
		CallInterval: 300 * time.Millisecond,
		Seed:         42,
	}
}

// Labeler labels raw statements with cognitive distortions.
type Labeler struct {
	chat    ai.ChatService
	limiter *ai.RateLimiter
	config  Config
}

// NewLabeler creates a labeler.
func NewLabeler(chat ai.ChatService, config Config) *Labeler {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Labeler{
		chat:    chat,
		limiter: ai.NewRateLimiter(config.CallInterval, 1),
		config:  config,
	}
}

// RawStatement is one usable row of the input CSV.
type RawStatement struct {
	Statement string
	Status    string
}

// ReadStatements parses the raw CSV and applies the status and length
// filters. The header must carry "statement" and "status" columns.
func ReadStatements(r io.Reader) ([]RawStatement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	stmtCol, statusCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "statement":
			stmtCol = i
		case "status":
			statusCol = i
		}
	}
	if stmtCol < 0 || statusCol < 0 {
		return nil, errors.New("csv is missing statement or status column")
	}

	var rows []RawStatement
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv row")
		}
		if stmtCol >= len(record) || statusCol >= len(record) {
			continue
		}
		statement := strings.TrimSpace(record[stmtCol])
		status := strings.TrimSpace(record[statusCol])
		if !acceptedStatuses[status] || len(statement) <= minStatementLength {
			continue
		}
		rows = append(rows, RawStatement{Statement: statement, Status: status})
	}
	return rows, nil
}

// ProcessFile reads the raw CSV, samples it, and labels every sampled
// statement. Labeling failures degrade to an unlabeled statement rather than
// failing the batch.
func (l *Labeler) ProcessFile(ctx context.Context, path string) ([]synth.BaseStatement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	rows, err := ReadStatements(f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("no usable statements after filtering")
	}

	rows = sample(rows, l.config.SampleSize, l.config.Seed)
	slog.Info("labeling statements", "count", len(rows))

	labeled := make([]synth.BaseStatement, len(rows))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(l.config.Concurrency)
	for i, row := range rows {
		i, row := i, row
		eg.Go(func() error {
			stmt, err := l.labelStatement(egCtx, row)
			if err != nil {
				return err
			}
			labeled[i] = stmt
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return labeled, nil
}

// labelResponse is the JSON shape the model returns.
type labelResponse struct {
	Distortions       []journey.DistortionDetection `json:"distortions"`
	OverallSeverity   float64                       `json:"overall_severity"`
	PrimaryDistortion journey.DistortionType        `json:"primary_distortion"`
}

func (l *Labeler) labelStatement(ctx context.Context, row RawStatement) (synth.BaseStatement, error) {
	base := synth.BaseStatement{
		Statement:          row.Statement,
		MentalHealthStatus: row.Status,
	}

	if err := l.limiter.Wait(ctx, "label"); err != nil {
		return base, err
	}

	raw, err := l.chat.Chat(ctx, ai.ChatRequest{
		Messages:    []ai.Message{{Role: "user", Content: buildLabelPrompt(row)}},
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		slog.Warn("labeling call failed, keeping statement unlabeled", "error", err)
		return base, nil
	}

	var resp labelResponse
	if err := json.Unmarshal([]byte(ai.StripJSONFences(raw)), &resp); err != nil {
		slog.Warn("labeling response unparseable, keeping statement unlabeled", "error", err)
		return base, nil
	}

	kept := resp.Distortions[:0]
	for _, d := range resp.Distortions {
		if !journey.IsValidDistortion(d.Type) {
			continue
		}
		kept = append(kept, d)
	}
	base.Distortions = kept
	base.OverallSeverity = resp.OverallSeverity
	if journey.IsValidDistortion(resp.PrimaryDistortion) {
		base.PrimaryDistortion = resp.PrimaryDistortion
	} else if len(kept) > 0 {
		base.PrimaryDistortion = kept[0].Type
	}
	return base, nil
}

func buildLabelPrompt(row RawStatement) string {
	var sb strings.Builder
	sb.WriteString("You are a cognitive behavioral therapy expert. Analyze this statement for cognitive distortions.\n\n")
	sb.WriteString("Statement: \"" + row.Statement + "\"\n")
	sb.WriteString("Context: This person is experiencing " + row.Status + "\n\n")
	sb.WriteString("For EACH distortion present:\n")
	sb.WriteString("1. Extract the EXACT phrase from the statement\n")
	sb.WriteString("2. Identify the distortion type\n")
	sb.WriteString("3. Rate confidence (0.0-1.0)\n\n")
	sb.WriteString("Available distortion types:\n")
	for _, line := range journey.DistortionVocabLines() {
		sb.WriteString(line + "\n")
	}
	sb.WriteString(`
Respond with ONLY valid JSON in this exact format:
{
  "distortions": [
    {"type": "distortion_key", "phrase": "exact quote from statement", "confidence": 0.95}
  ],
  "overall_severity": 0.0,
  "primary_distortion": "most prominent distortion type or empty string"
}

If NO distortions are found, return: {"distortions": [], "overall_severity": 0.0, "primary_distortion": ""}
`)
	return sb.String()
}

// sample returns up to n rows in a seeded shuffle order.
func sample(rows []RawStatement, n int, seed int64) []RawStatement {
	shuffled := append([]RawStatement(nil), rows...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > 0 && n < len(shuffled) {
		shuffled = shuffled[:n]
	}
	return shuffled
}

// SaveBaseStatements writes the labeled set as indented JSON.
func SaveBaseStatements(path string, statements []synth.BaseStatement) error {
	data, err := json.MarshalIndent(statements, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode base statements")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// LoadBaseStatements reads a labeled set written by SaveBaseStatements.
func LoadBaseStatements(path string) ([]synth.BaseStatement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var statements []synth.BaseStatement
	if err := json.Unmarshal(data, &statements); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return statements, nil
}
