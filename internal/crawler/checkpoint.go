package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/crawlchat/crawlchat/internal/dedup"
	"github.com/crawlchat/crawlchat/internal/model"
)

// CheckpointManager handles saving and loading crawl state for pause/resume,
// one checkpoint file per task.
type CheckpointManager struct {
	interval      time.Duration
	checkpointDir string
	taskID        string
}

type checkpointData struct {
	Timestamp    time.Time       `json:"timestamp"`
	FrontierURLs []checkpointReq `json:"frontier_urls"`
	SeenURLs     []string        `json:"seen_urls"`
	Stats        checkpointStats `json:"stats"`
}

type checkpointReq struct {
	URL       string `json:"url"`
	Depth     int    `json:"depth"`
	Priority  int    `json:"priority"`
	ParentURL string `json:"parent_url,omitempty"`
}

type checkpointStats struct {
	RequestsSent    int64 `json:"requests_sent"`
	RequestsFailed  int64 `json:"requests_failed"`
	ResponsesOK     int64 `json:"responses_ok"`
	ResponsesError  int64 `json:"responses_error"`
	DocumentsStored int64 `json:"documents_stored"`
	URLsEnqueued    int64 `json:"urls_enqueued"`
	BytesDownloaded int64 `json:"bytes_downloaded"`
}

func NewCheckpointManager(taskID string, interval time.Duration) *CheckpointManager {
	return &CheckpointManager{
		interval:      interval,
		checkpointDir: filepath.Join(".crawlchat_checkpoints", taskID),
		taskID:        taskID,
	}
}

func (cm *CheckpointManager) Save(frontier *Frontier, seen *dedup.URLSeen, stats *Stats) error {
	if err := os.MkdirAll(cm.checkpointDir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	requests := frontier.Snapshot()
	data := checkpointData{
		Timestamp:    time.Now(),
		FrontierURLs: make([]checkpointReq, len(requests)),
		SeenURLs:     seen.Export(),
		Stats: checkpointStats{
			RequestsSent:    stats.RequestsSent.Load(),
			RequestsFailed:  stats.RequestsFailed.Load(),
			ResponsesOK:     stats.ResponsesOK.Load(),
			ResponsesError:  stats.ResponsesError.Load(),
			DocumentsStored: stats.DocumentsStored.Load(),
			URLsEnqueued:    stats.URLsEnqueued.Load(),
			BytesDownloaded: stats.BytesDownloaded.Load(),
		},
	}

	for i, req := range requests {
		data.FrontierURLs[i] = checkpointReq{
			URL:       req.URLString(),
			Depth:     req.Depth,
			Priority:  req.Priority,
			ParentURL: req.ParentURL,
		}
	}

	tmpPath := filepath.Join(cm.checkpointDir, "checkpoint.tmp")
	finalPath := filepath.Join(cm.checkpointDir, "checkpoint.json")

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create checkpoint file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	f.Close()

	return os.Rename(tmpPath, finalPath)
}

func (cm *CheckpointManager) Load(frontier *Frontier, seen *dedup.URLSeen, stats *Stats) error {
	path := filepath.Join(cm.checkpointDir, "checkpoint.json")

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	var data checkpointData
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}

	seen.Import(data.SeenURLs)

	for _, cr := range data.FrontierURLs {
		req, err := newRequestFromCheckpoint(cm.taskID, cr)
		if err != nil {
			continue
		}
		frontier.Push(req)
	}

	stats.RequestsSent.Store(data.Stats.RequestsSent)
	stats.RequestsFailed.Store(data.Stats.RequestsFailed)
	stats.ResponsesOK.Store(data.Stats.ResponsesOK)
	stats.ResponsesError.Store(data.Stats.ResponsesError)
	stats.DocumentsStored.Store(data.Stats.DocumentsStored)
	stats.URLsEnqueued.Store(data.Stats.URLsEnqueued)
	stats.BytesDownloaded.Store(data.Stats.BytesDownloaded)

	return nil
}

func (cm *CheckpointManager) HasCheckpoint() bool {
	_, err := os.Stat(filepath.Join(cm.checkpointDir, "checkpoint.json"))
	return err == nil
}

func (cm *CheckpointManager) Clean() error {
	path := filepath.Join(cm.checkpointDir, "checkpoint.json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func newRequestFromCheckpoint(taskID string, cr checkpointReq) (*model.FetchRequest, error) {
	req, err := model.NewFetchRequest(cr.URL, taskID)
	if err != nil {
		return nil, err
	}
	req.Depth = cr.Depth
	req.Priority = cr.Priority
	req.ParentURL = cr.ParentURL
	return req, nil
}
