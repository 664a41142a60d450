package transfer

import (
	"archive/zip"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/jackzampolin/juris/internal/corpus"
	"github.com/jackzampolin/juris/internal/types"
)

const (
	DefaultBatchSize     = 10000
	DefaultArchivePrefix = "juportal_valid_batch"
)

// Uploader stores an archive under name. *store.S3 implements it.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader) error
}

// UploadConfig configures packaging and upload of the valid corpus.
type UploadConfig struct {
	Records          *corpus.Repository
	Target           Uploader
	ExcludedLanguage types.Language
	BatchSize        int
	ArchivePrefix    string
	TempDir          string // Empty uses os.TempDir
	Logger           *slog.Logger
}

// UploadResult summarizes an upload.
type UploadResult struct {
	Scanned  int      `json:"scanned"`
	Selected int      `json:"selected"`
	Invalid  int      `json:"invalid"`
	Excluded int      `json:"excluded"`
	Skipped  int      `json:"skipped"`
	Archives []string `json:"archives"`
	Failed   []string `json:"failed"`
}

// Upload packages every valid record not in the excluded language into
// zip archives of BatchSize records and hands each to Target. A failed
// archive is reported and the remaining archives are still attempted.
func Upload(ctx context.Context, cfg UploadConfig) (UploadResult, error) {
	var result UploadResult
	if cfg.Records == nil || cfg.Target == nil {
		return result, fmt.Errorf("transfer: records and target are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "upload")
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	prefix := cfg.ArchivePrefix
	if prefix == "" {
		prefix = DefaultArchivePrefix
	}

	var selected []string
	skipped, err := cfg.Records.Each(ctx, func(rec *types.Record) error {
		result.Scanned++
		switch {
		case !rec.IsValid:
			result.Invalid++
		case cfg.ExcludedLanguage != "" && rec.LanguageMetadata == cfg.ExcludedLanguage:
			result.Excluded++
		default:
			selected = append(selected, rec.FileName)
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	result.Skipped = skipped
	result.Selected = len(selected)
	sort.Strings(selected)

	logger.Info("upload planned",
		"selected", result.Selected,
		"invalid", result.Invalid,
		"excluded", result.Excluded,
		"batch_size", batchSize)

	for i := 0; i < len(selected); i += batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		name := fmt.Sprintf("%s_%04d.zip", prefix, i/batchSize+1)
		batch := selected[i:min(i+batchSize, len(selected))]
		if err := uploadArchive(ctx, cfg, name, batch); err != nil {
			logger.Warn("archive upload failed", "archive", name, "error", err)
			result.Failed = append(result.Failed, name)
			continue
		}
		logger.Info("archive uploaded", "archive", name, "records", len(batch))
		result.Archives = append(result.Archives, name)
	}
	return result, nil
}

// uploadArchive spools one archive to a temp file so large batches stay
// off the heap, then uploads it.
func uploadArchive(ctx context.Context, cfg UploadConfig, name string, files []string) error {
	tmp, err := os.CreateTemp(cfg.TempDir, "juris-upload-*.zip")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := writeArchive(ctx, tmp, cfg.Records, files); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind archive: %w", err)
	}
	return cfg.Target.Upload(ctx, name, tmp)
}

func writeArchive(ctx context.Context, w io.Writer, records *corpus.Repository, files []string) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	for _, file := range files {
		data, err := records.Store().Read(ctx, file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: file, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("add %s: %w", file, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("add %s: %w", file, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}
