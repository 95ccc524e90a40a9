package entity

import "time"

// PrimaryType classifies the dominant kind of source backing a keyword.
// "web", "video" and "image" are tolerated as legacy values read back from
// rows written before the three-way {news, social, data} classifier.
type PrimaryType string

const (
	PrimaryTypeNews   PrimaryType = "news"
	PrimaryTypeSocial PrimaryType = "social"
	PrimaryTypeData   PrimaryType = "data"

	// Legacy values, tolerated on read, never written by this implementation.
	PrimaryTypeWeb   PrimaryType = "web"
	PrimaryTypeVideo PrimaryType = "video"
	PrimaryTypeImage PrimaryType = "image"
)

// Snapshot is the immutable, time-stamped root of one pipeline run. Once
// committed it is never updated or deleted; SnapshotID is its primary key.
type Snapshot struct {
	SnapshotID      string
	UpdatedAtUTC    time.Time
	NextUpdateAtUTC time.Time
	CreatedAt       time.Time
}

// TopSource is the top-source projection embedded in a KeywordRow.
type TopSource struct {
	Title    string
	URL      string
	Domain   string
	ImageURL string
}

// KeywordRow is one ranked keyword within a Snapshot. Composite key is
// (SnapshotID, KeywordID); Rank is dense and unique within a snapshot.
type KeywordRow struct {
	SnapshotID string
	KeywordID  string
	Keyword    string

	Rank      int
	DeltaRank int
	IsNew     bool

	Score           float64
	ScoreRecency    float64
	ScoreFrequency  float64
	ScoreAuthority  float64
	ScoreInternal   float64
	SummaryShortKo  string
	SummaryShortEn  string
	PrimaryType     PrimaryType
	TopSource       TopSource
	CreatedAt       time.Time
}

// Lightweight reports whether this row carries no enrichment fields — the
// shape persisted for ranks beyond the detailed top-D cutoff.
func (k KeywordRow) Lightweight() bool {
	return k.SummaryShortKo == "" && k.SummaryShortEn == "" && k.TopSource.URL == ""
}

// SourceRow is one enrichment source backing a KeywordRow. The unique key
// is (SnapshotID, KeywordID, Type, URL); every enriched KeywordRow has at
// least one SourceRow sharing its (SnapshotID, KeywordID).
type SourceRow struct {
	ID             int64
	SnapshotID     string
	KeywordID      string
	Type           string
	Title          string
	URL            string
	Domain         string
	PublishedAtUTC *time.Time
	Snippet        string
	ImageURL       string
	TitleKo        string
	TitleEn        string
	CreatedAt      time.Time
}

// DefaultSentinelImage is substituted for SourceRow.ImageURL when no image
// could be resolved; the field is non-null by invariant.
const DefaultSentinelImage = "/static/images/default-source.png"

// AliasRow persists one alternative spelling of a keyword, reserved for
// search lookup (keyword_aliases table).
type AliasRow struct {
	CanonicalKeywordID string
	Alias              string
	Lang               Lang
	CreatedAt          time.Time
}

// SearchCountRow is a counter-only row tracking how often a query string
// has been searched, reserved for the out-of-scope read/search API.
type SearchCountRow struct {
	Query          string
	Count          int64
	LastSearchedAt time.Time
}
