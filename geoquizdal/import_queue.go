package geoquizdal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jamesrr39/goutil/dirtraversal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
)

type ImportStatus int

const (
	ImportStatusQueued ImportStatus = iota + 1
	ImportStatusInProgress
	ImportStatusDone
	ImportStatusFailed
)

var importStatusNames = []string{
	"Unknown",
	"Queued",
	"In Progress",
	"Done",
	"Failed",
}

func (i ImportStatus) String() string {
	if i < 0 || int(i) >= len(importStatusNames) {
		return importStatusNames[0]
	}
	return importStatusNames[i]
}

func (i ImportStatus) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// ProcessImportFunc imports the dataset at sourceConnURL into destConnURL, returning the amount of features written
type ProcessImportFunc func(ctx context.Context, sourceConnURL, destConnURL DatasetConnectionURL) (int, errorsx.Error)

type ImportQueueItem struct {
	SourceFilePath string        `json:"sourceFilePath"`
	DestConnURL    string        `json:"destConnUrl"`
	Status         ImportStatus  `json:"status"`
	FeatureCount   int           `json:"featureCount"`
	LastError      string        `json:"lastError,omitempty"`
	QueuedAt       time.Time     `json:"queuedAt"`
	TimeInProgress time.Duration `json:"timeInProgress"`

	sourceConnURL DatasetConnectionURL
	destConnURL   DatasetConnectionURL
}

// ImportQueue stores uploaded dataset files and imports them one at a time
type ImportQueue struct {
	logger      *logpkg.Logger
	fs          gofs.Fs
	uploadDir   string
	processFunc ProcessImportFunc

	mu        *sync.Mutex
	items     []*ImportQueueItem
	isWorking bool
}

func NewImportQueue(logger *logpkg.Logger, fs gofs.Fs, uploadDir string, processFunc ProcessImportFunc) *ImportQueue {
	return &ImportQueue{
		logger:      logger,
		fs:          fs,
		uploadDir:   uploadDir,
		processFunc: processFunc,
		mu:          new(sync.Mutex),
	}
}

// GetItems returns a snapshot of every item ever queued, oldest first
func (q *ImportQueue) GetItems() []ImportQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := []ImportQueueItem{}
	for _, item := range q.items {
		items = append(items, *item)
	}
	return items
}

// AddItemToQueue writes rawData into the upload dir and queues it for import into destConnURL.
// The dataset type is taken from the extension of fileName.
func (q *ImportQueue) AddItemToQueue(rawData io.Reader, fileName string, destConnURL DatasetConnectionURL) errorsx.Error {
	var err error

	tryingToGoUp := dirtraversal.IsTryingToTraverseUp(fileName)
	if tryingToGoUp {
		return errorsx.Errorf("not allowed to traverse up with filename %q", fileName)
	}

	ext := filepath.Ext(fileName)
	rawDataFilePath, err := GenerateFilePathForNewDiskFile(q.fs, q.uploadDir, strings.TrimSuffix(filepath.Base(fileName), ext), ext)
	if err != nil {
		return errorsx.Wrap(err)
	}

	sourceConnURL, err := ParseDatasetConnString(rawDataFilePath)
	if err != nil {
		return errorsx.Wrap(err)
	}

	f, err := q.fs.Create(rawDataFilePath)
	if err != nil {
		return errorsx.Wrap(err)
	}

	_, err = io.Copy(f, rawData)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return errorsx.Wrap(err, "path", rawDataFilePath)
	}

	item := &ImportQueueItem{
		SourceFilePath: rawDataFilePath,
		DestConnURL:    destConnURL.String(),
		Status:         ImportStatusQueued,
		QueuedAt:       time.Now(),
		sourceConnURL:  sourceConnURL,
		destConnURL:    destConnURL,
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	startWorker := !q.isWorking
	q.isWorking = true
	q.mu.Unlock()

	if startWorker {
		go q.work()
	}

	return nil
}

func (q *ImportQueue) work() {
	for {
		item := q.getNextItemToProcess()
		if item == nil {
			return
		}

		q.importQueueItem(item)
	}
}

// getNextItemToProcess moves the oldest queued item to in progress. If there are none, the worker is marked as stopped.
func (q *ImportQueue) getNextItemToProcess() *ImportQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range q.items {
		if item.Status == ImportStatusQueued {
			item.Status = ImportStatusInProgress
			return item
		}
	}

	// all imports are finished
	q.isWorking = false
	return nil
}

func (q *ImportQueue) importQueueItem(item *ImportQueueItem) {
	startTime := time.Now()

	count, err := q.processFunc(context.Background(), item.sourceConnURL, item.destConnURL)

	q.mu.Lock()
	defer q.mu.Unlock()

	item.TimeInProgress = time.Since(startTime)

	if err != nil {
		q.logger.Error(
			"failed to import queue item. Raw data file: %q.\nError: %q\nStack: %s\n",
			item.SourceFilePath, err.Error(), err.Stack())
		item.Status = ImportStatusFailed
		item.LastError = err.Error()
		return
	}

	q.logger.Info("imported %d features from %q into %q in %s", count, item.SourceFilePath, item.DestConnURL, item.TimeInProgress)
	item.Status = ImportStatusDone
	item.FeatureCount = count
}

// GenerateFilePathForNewDiskFile finds a path in dirPath that doesn't exist yet, numbering the file name if needed
func GenerateFilePathForNewDiskFile(fs gofs.Fs, dirPath, fileName, suffix string) (string, errorsx.Error) {
	var err error
	for i := 0; i < 1000000; i++ {
		var id string
		if i != 0 {
			id = fmt.Sprintf("_%d", i)
		}

		fileName := fmt.Sprintf("%s%s%s", fileName, id, suffix)
		filePath := filepath.Join(dirPath, fileName)

		_, err = fs.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return "", errorsx.Wrap(err)
			}
		}

		if err == nil {
			// file already exists
			continue
		}

		return filePath, nil
	}

	return "", errorsx.Errorf("ran out of numbers for suffix")
}
