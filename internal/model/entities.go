package model

import (
	"sync"
	"time"
)

// ProxyMode is the escalation tier used to fetch a URL.
type ProxyMode int

const (
	ModeNoJS ProxyMode = iota
	ModeStandard
	ModePremium
	ModeStealth
)

func (m ProxyMode) String() string {
	switch m {
	case ModeNoJS:
		return "nojs"
	case ModeStandard:
		return "standard"
	case ModePremium:
		return "premium"
	case ModeStealth:
		return "stealth"
	default:
		return "unknown"
	}
}

// Next returns the next escalation tier, or the current tier if already at
// the ceiling.
func (m ProxyMode) Next() ProxyMode {
	if m >= ModeStealth {
		return ModeStealth
	}
	return m + 1
}

// TaskStatus is the lifecycle state of a CrawlTask.
type TaskStatus int

const (
	TaskCreated TaskStatus = iota
	TaskQueued
	TaskRunning
	TaskPaused
	TaskCompleted
	TaskFailed
	TaskCanceled
)

func (s TaskStatus) String() string {
	switch s {
	case TaskCreated:
		return "created"
	case TaskQueued:
		return "queued"
	case TaskRunning:
		return "running"
	case TaskPaused:
		return "paused"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ContentType identifies the source format of a crawled document.
type ContentType int

const (
	ContentHTML ContentType = iota
	ContentPDF
	ContentDOCX
	ContentXLSX
	ContentPPTX
	ContentCSV
	ContentPlainText
	ContentJSON
	ContentUnknown
)

func (c ContentType) String() string {
	switch c {
	case ContentHTML:
		return "html"
	case ContentPDF:
		return "pdf"
	case ContentDOCX:
		return "docx"
	case ContentXLSX:
		return "xlsx"
	case ContentPPTX:
		return "pptx"
	case ContentCSV:
		return "csv"
	case ContentPlainText:
		return "text"
	case ContentJSON:
		return "json"
	default:
		return "unknown"
	}
}

// CrawlTask is one operator-submitted crawl job: a set of seed URLs bounded
// by depth/page/document limits.
type CrawlTask struct {
	ID          string
	SessionID   string
	UserID      string
	Seeds       []string
	AllowHosts  []string
	DenyHosts   []string
	MaxDepth    int
	MaxPages    int
	MaxDocument int
	RenderJS    bool
	Status      TaskStatus
	CreatedAt   time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string
}

// CrawledDocument is a raw fetched artifact (HTML page or downloadable
// document) stored verbatim in the object store.
type CrawledDocument struct {
	ID          string
	TaskID      string
	URL         string
	ContentType ContentType
	ObjectKey   string
	FetchedVia  ProxyMode
	Depth       int
	SizeBytes   int64
	ContentHash string
	FetchedAt   time.Time
}

// ProcessStatus is the outcome of Vector Indexer's process() operation.
type ProcessStatus int

const (
	ProcessSuccess ProcessStatus = iota
	ProcessDuplicateSkipped
	ProcessError
)

func (s ProcessStatus) String() string {
	switch s {
	case ProcessSuccess:
		return "processed"
	case ProcessDuplicateSkipped:
		return "duplicate_skipped"
	case ProcessError:
		return "error"
	default:
		return "unknown"
	}
}

// ProcessedDocument is the extracted-text, chunked representation of a
// CrawledDocument, ready for embedding. Content-hash dedup is keyed by
// (SessionID, ContentHash): at most one non-duplicate ProcessedDocument
// exists per pair, and duplicates reuse the original's VectorFileID.
type ProcessedDocument struct {
	ID            string
	DocumentID    string
	TaskID        string
	SessionID     string
	Chunks        []Chunk
	ExtractedBy   string // extraction tier that produced the text
	ContentHash   string // hash of the normalized full extracted text
	IsDuplicate   bool
	OriginalDocID string // set iff IsDuplicate
	VectorFileID  string
	VectorStoreID string
	Status        ProcessStatus
	ProcessedAt   time.Time
}

// Chunk is one unit of extracted text carried into the vector index.
type Chunk struct {
	Index       int
	Text        string
	ContentHash string
	SourceURL   string
}

// QueryCategory classifies an incoming question so the retriever and
// prompt builder can specialize their behavior. Order is priority order:
// the query planner checks categories top-to-bottom and the first matching
// keyword set wins.
type QueryCategory int

const (
	CategoryConciseResponse QueryCategory = iota
	CategoryTechnicalDocument
	CategoryLegalDocument
	CategoryEducationalContent
	CategoryMarketCrashAnalysis
	CategoryStockPrediction
	CategoryStockAnalysis
	CategoryMarketEducation
	CategoryInvestmentGuidance
	CategoryMarketResearch
	CategoryTechnicalAnalysis
	CategoryNewsAnalysis
	CategoryMultiYearCalculation
	CategoryCalculation
	CategorySummary
	CategoryGeneral
)

func (c QueryCategory) String() string {
	names := [...]string{
		"concise_response", "technical_document", "legal_document",
		"educational_content", "market_crash_analysis", "stock_prediction",
		"stock_analysis", "market_education", "investment_guidance",
		"market_research", "technical_analysis", "news_analysis",
		"multi_year_calculation", "calculation", "summary", "general",
	}
	if int(c) < 0 || int(c) >= len(names) {
		return "unknown"
	}
	return names[c]
}

// Message is one turn in a Session's conversation log.
type Message struct {
	Role      string // "user" or "assistant"
	Content   string
	Category  QueryCategory
	CreatedAt time.Time
}

// Session holds the conversation state for one chat over one crawled
// corpus. Append, History and LastNumericAnswer hold the mutex embedded in
// this Session value; Session values loaded separately for the same ID do
// not share a lock.
type Session struct {
	ID        string
	TaskID    string
	Messages  []Message
	CreatedAt time.Time
	mu        sync.Mutex
}

// Append adds a message to the session log under the session's own lock,
// making the session the sole serializer of its own mutation.
func (s *Session) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
}

// History returns a snapshot copy of the message log.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// LastNumericAnswer returns the most recent assistant message classified as
// a calculation, used to seed NumericContextCache follow-ups.
func (s *Session) LastNumericAnswer() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.Messages) - 1; i >= 0; i-- {
		c := s.Messages[i].Category
		if s.Messages[i].Role == "assistant" && (c == CategoryCalculation || c == CategoryMultiYearCalculation) {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}
