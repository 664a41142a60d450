package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/juris/internal/corpus"
	"github.com/jackzampolin/juris/internal/oracle"
	"github.com/jackzampolin/juris/internal/store"
	"github.com/jackzampolin/juris/internal/transform"
	"github.com/jackzampolin/juris/internal/types"
)

// englishChecker flags any record whose full text mentions English.
type englishChecker struct{}

func (englishChecker) Validate(ctx context.Context, rec *types.Record) bool {
	return !strings.Contains(rec.FullText, "English")
}

type fixture struct {
	input  *store.FS
	output *corpus.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	in, err := store.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	out, err := store.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{input: in, output: corpus.NewRepository(out, nil)}
}

func (f *fixture) raw(t *testing.T, name, body string, aliases ...string) {
	t.Helper()
	card := []types.RawParagraph{{Text: "Chambre:"}, {Text: "1F"}}
	if len(aliases) > 0 {
		card = append(card, types.RawParagraph{Text: "ECLI Alias:"}, types.RawParagraph{Text: strings.Join(aliases, "; ")})
	}
	// An impossible legend date leaves the ECLI as the date source.
	doc := types.RawDocument{Sections: []types.RawSection{
		{Legend: "Jugement/arrêt du 31 juin 2007", Paragraphs: card},
		{Legend: "Texte de la décision", Paragraphs: []types.RawParagraph{{Text: body}}},
	}}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.input.Write(context.Background(), name, data); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) runner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	cfg.Input = f.input
	cfg.Output = f.output
	if cfg.Transformer == nil {
		cfg.Transformer = transform.New(transform.Config{Language: englishChecker{}})
	}
	r, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

const (
	fileA = "juportal.be_BE_CASS_2007_ARR.20070622.1_FR.json"
	fileB = "juportal.be_BE_CASS_2007_ARR.20070622.2_NL.json"
	fileC = "juportal.be_BE_GHCC_2015_ARR.20150312.3_DE.json"
	fileD = "juportal.be_BE_CASS_2007_CONC.20070622.4_FR.json"
	fileE = "juportal.be_BE_CASS_2008_ARR.20080101.5_FR.json"
	fileF = "juportal.be_BE_CASS_2008_ARR.20080101.6_NL.json"
	fileG = "juportal.be_BE_CASS_2008_ARR.20080101.7_FR.json"
	fileH = "juportal.be_BE_CASS_2009_ARR.8_FR.json"
)

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.raw(t, fileA, "La Cour rejette le pourvoi.", "ECLI:BE:CASS:2007:ARR.20070622.2")
	f.raw(t, fileB, "Het Hof verwerpt het cassatieberoep.")
	f.raw(t, fileC, "Der Gerichtshof weist die Klage zurück.")
	f.raw(t, fileD, "Le ministère public conclut au rejet.")
	f.raw(t, fileE, "Mostly English text in a French record.")
	f.raw(t, fileF, "English again in a Dutch record.")
	f.raw(t, fileH, "Arrêt sans date complète.")
	if err := f.input.Write(ctx, fileG, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := f.input.Write(ctx, "readme.txt", []byte("ignored")); err != nil {
		t.Fatal(err)
	}

	mock := oracle.NewMock()
	mock.BatchFunc = func(items []oracle.BatchItem) (map[string]oracle.BatchVerdict, error) {
		out := map[string]oracle.BatchVerdict{}
		for _, item := range items {
			switch item.FileName {
			case fileE:
				out[fileE] = oracle.BatchVerdict{FileName: fileE, Valid: true, Confidence: 0.9, Explanation: "legal French"}
			case fileF:
				out[fileF] = oracle.BatchVerdict{FileName: fileF, Valid: true, Confidence: 0.5, Explanation: "unsure"}
			}
		}
		return out, nil
	}

	r := f.runner(t, Config{Oracle: mock, ExcludedLanguage: types.LanguageDE, Workers: 3})
	stats, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.RunID == "" {
		t.Error("RunID not set")
	}
	got := map[string]int{
		"total":              stats.Total,
		"successful":         stats.Successful,
		"failed":             stats.Failed,
		"skipped_conc":       stats.SkippedConc,
		"language_invalid":   stats.LanguageInvalid,
		"removed_duplicates": stats.RemovedDuplicates,
		"removed_language":   stats.RemovedLanguage,
		"escalated":          stats.Escalated,
		"fixed":              stats.Fixed,
		"still_invalid":      stats.StillInvalid,
		"missing_dates":      stats.MissingDates,
		"saved":              stats.Saved(),
	}
	want := map[string]int{
		"total":              8,
		"successful":         7,
		"failed":             1,
		"skipped_conc":       1,
		"language_invalid":   2,
		"removed_duplicates": 1,
		"removed_language":   1,
		"escalated":          2,
		"fixed":              1,
		"still_invalid":      1,
		"missing_dates":      1,
		"saved":              6,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stats = %v\nwant    %v", got, want)
	}

	names, err := f.output.Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if wantNames := []string{fileA, fileE, fileF, fileH}; !reflect.DeepEqual(names, wantNames) {
		t.Errorf("records = %v\nwant      %v", names, wantNames)
	}

	e, err := f.output.Load(ctx, fileE)
	if err != nil {
		t.Fatal(err)
	}
	if !e.IsValid || e.LLMValidation == nil || !e.LLMValidation.Validated || e.LLMValidation.Explanation != "legal French" {
		t.Errorf("fixed record = valid %v, llm %+v", e.IsValid, e.LLMValidation)
	}
	fr, err := f.output.Load(ctx, fileF)
	if err != nil {
		t.Fatal(err)
	}
	if fr.IsValid || fr.LLMValidation == nil || fr.LLMValidation.Validated || fr.LLMValidation.Confidence != 0.5 {
		t.Errorf("unfixed record = valid %v, llm %+v", fr.IsValid, fr.LLMValidation)
	}

	data, err := f.output.Store().Read(ctx, corpus.InvalidFilesReport)
	if err != nil {
		t.Fatalf("invalid-files report: %v", err)
	}
	var invalid []string
	if err := json.Unmarshal(data, &invalid); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(invalid, []string{fileF}) {
		t.Errorf("invalid report = %v", invalid)
	}

	data, err = f.output.Store().Read(ctx, corpus.MissingDatesReport)
	if err != nil {
		t.Fatalf("missing-dates report: %v", err)
	}
	var missing corpus.MissingDates
	if err := json.Unmarshal(data, &missing); err != nil {
		t.Fatal(err)
	}
	if missing.Count != 1 || missing.Files[0].File != fileH || missing.Files[0].CurrentDate != "2009" {
		t.Errorf("missing report = %+v", missing)
	}
}

func seedInvalid(t *testing.T, repo *corpus.Repository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		rec := types.NewRecord(fmt.Sprintf("juportal.be_BE_CASS_2010_ARR.%03d_FR.json", i), types.LanguageFR)
		rec.DecisionID = fmt.Sprintf("ECLI:BE:CASS:2010:ARR.%03d", i)
		rec.FullText = "Some English text."
		if err := repo.Save(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunner_EscalateBoundedConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedInvalid(t, f.output, 25)

	mock := oracle.NewMock()
	mock.Latency = 20 * time.Millisecond

	r := f.runner(t, Config{Oracle: mock, BatchSize: 2, MaxConcurrent: 3})
	var stats Stats
	if err := r.Escalate(ctx, &stats); err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}

	if calls := mock.BatchCalls(); calls != 13 {
		t.Errorf("batch calls = %d, want 13", calls)
	}
	if max := mock.MaxInFlight(); max > 3 {
		t.Errorf("max in flight = %d, want <= 3", max)
	}
	if stats.Escalated != 25 || stats.Fixed != 25 || stats.StillInvalid != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := f.output.Store().Read(ctx, corpus.InvalidFilesReport); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("no report expected when everything is fixed, got %v", err)
	}
}

func TestRunner_EscalateBatchFailureKeepsVerdicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedInvalid(t, f.output, 3)

	mock := oracle.NewMock()
	mock.BatchFunc = func(items []oracle.BatchItem) (map[string]oracle.BatchVerdict, error) {
		return nil, oracle.ErrMalformedResponse
	}

	r := f.runner(t, Config{Oracle: mock, BatchSize: 10})
	var stats Stats
	if err := r.Escalate(ctx, &stats); err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if stats.FailedBatches != 1 || stats.StillInvalid != 3 || stats.Fixed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	rec, err := f.output.Load(ctx, "juportal.be_BE_CASS_2010_ARR.000_FR.json")
	if err != nil {
		t.Fatal(err)
	}
	if rec.IsValid || rec.LLMValidation != nil {
		t.Errorf("record changed after failed batch: %+v", rec)
	}
}

func TestRunner_EscalateWithoutOracle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedInvalid(t, f.output, 2)

	r := f.runner(t, Config{})
	var stats Stats
	if err := r.Escalate(ctx, &stats); err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if stats.StillInvalid != 2 {
		t.Errorf("StillInvalid = %d, want 2", stats.StillInvalid)
	}
	data, err := f.output.Store().Read(ctx, corpus.InvalidFilesReport)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ARR.001_FR.json") {
		t.Errorf("report = %s", data)
	}
}

func TestRunner_CleanRemovesStaleOutput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.raw(t, fileA, "La Cour rejette le pourvoi.")
	if err := f.output.Store().Write(ctx, "stale_FR.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}

	r := f.runner(t, Config{Clean: true})
	var stats Stats
	if err := r.TransformAll(ctx, &stats); err != nil {
		t.Fatalf("TransformAll() error = %v", err)
	}
	names, _ := f.output.Names(ctx)
	if !reflect.DeepEqual(names, []string{fileA}) {
		t.Errorf("records = %v", names)
	}
}

func TestNewRunner_RequiresCollaborators(t *testing.T) {
	if _, err := NewRunner(Config{}); err == nil {
		t.Error("expected error without stores")
	}
}
