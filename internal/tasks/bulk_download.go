package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/services"
	"golang.org/x/time/rate"
)

// Engine runs multi-request operations against the backend.
type Engine struct {
	backend services.Backend
	logger  *log.Logger
}

// NewEngine creates an engine over the given backend.
func NewEngine(backend services.Backend, logger *log.Logger) *Engine {
	return &Engine{backend: backend, logger: logger}
}

// Phase identifies the stage of a bulk download for progress reporting.
type Phase int

const (
	FetchHistory Phase = iota
	DownloadFiles
	WriteManifest
)

// ProgressUpdate is a non-blocking status message emitted during bulk operations.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
}

// FileDownloadResult is the outcome for a single history entry.
type FileDownloadResult struct {
	UploadID string `json:"upload_id"`
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// BulkDownloadResult summarizes a bulk history download.
type BulkDownloadResult struct {
	TotalUploads    int                  `json:"total_uploads"`
	Succeeded       int                  `json:"succeeded"`
	Failed          int                  `json:"failed"`
	OutputDirectory string               `json:"output_directory"`
	Results         []FileDownloadResult `json:"results"`
}

// BulkDownloadOpts contains configuration for bulk history downloads.
type BulkDownloadOpts struct {
	OutputDir  string  // Base output directory (default: statements_{epoch})
	NumWorkers int     // Concurrent workers (default: 4)
	RateLimit  float64 // Requests per second (default: 4)
}

type downloadJob struct {
	record models.UploadRecord
}

// BulkDownload fetches the spreadsheet for every record in the upload
// history, concurrently with rate limiting, and writes a manifest file
// summarizing the results. Partial failures are recorded, not fatal.
func (e *Engine) BulkDownload(ctx context.Context, prog chan<- ProgressUpdate, opts BulkDownloadOpts) (*BulkDownloadResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("statements_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4.0
	}

	e.sendProgress(prog, ProgressUpdate{Phase: FetchHistory, Message: "fetching upload history"})

	records, err := e.backend.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	result := &BulkDownloadResult{
		TotalUploads:    len(records),
		OutputDirectory: opts.OutputDir,
		Results:         make([]FileDownloadResult, 0, len(records)),
	}

	if len(records) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan downloadJob, len(records))
	results := make(chan FileDownloadResult, len(records))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.downloadWorker(ctx, &wg, limiter, jobs, results, opts.OutputDir)
	}

	for _, record := range records {
		jobs <- downloadJob{record: record}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		if r.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, r)
		e.sendProgress(prog, ProgressUpdate{
			Phase:   DownloadFiles,
			Step:    done,
			Total:   len(records),
			Message: r.Filename,
		})
	}

	e.sendProgress(prog, ProgressUpdate{Phase: WriteManifest, Message: "writing manifest"})
	if err := e.writeManifest(opts.OutputDir, result); err != nil {
		e.logger.Warnf("failed to write manifest: %v", err)
	}

	return result, nil
}

func (e *Engine) downloadWorker(ctx context.Context, wg *sync.WaitGroup, limiter *rate.Limiter, jobs <-chan downloadJob, results chan<- FileDownloadResult, dir string) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- FileDownloadResult{UploadID: job.record.ID, Filename: job.record.Filename, Error: err.Error()}
			continue
		}

		blob, err := e.backend.Download(ctx, job.record.ID)
		if err != nil {
			results <- FileDownloadResult{UploadID: job.record.ID, Filename: job.record.Filename, Error: err.Error()}
			continue
		}

		path := filepath.Join(dir, blob.Filename)
		if err := os.WriteFile(path, blob.Data, 0644); err != nil {
			results <- FileDownloadResult{UploadID: job.record.ID, Filename: blob.Filename, Error: err.Error()}
			continue
		}

		results <- FileDownloadResult{UploadID: job.record.ID, Filename: blob.Filename, Path: path, Success: true}
	}
}

func (e *Engine) writeManifest(dir string, result *BulkDownloadResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// sendProgress emits an update without blocking when nobody is listening.
func (e *Engine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
