package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Item describes a review item in a transport-friendly format.
type Item struct {
	ID             int64  `json:"id"`
	Status         string `json:"status"`
	Label          string `json:"label"`
	OriginalPath   string `json:"originalPath"`
	StagedPath     string `json:"stagedPath,omitempty"`
	VideoTitle     string `json:"videoTitle"`
	Channel        string `json:"channel"`
	InferredTitle  string `json:"inferredTitle"`
	InferredArtist string `json:"inferredArtist"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	Genre          string `json:"genre"`
	Extension      string `json:"extension"`
	HasArtwork     bool   `json:"hasArtwork"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	RawInference   string `json:"rawInference,omitempty"`
	LibraryPath    string `json:"libraryPath,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// ItemListResponse wraps a collection of items.
type ItemListResponse struct {
	Items []Item `json:"items"`
}

// ItemResponse wraps a single item.
type ItemResponse struct {
	Item Item `json:"item"`
}

// ConfirmRequest is the body of POST /api/items/{id}/confirm.
type ConfirmRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
}

// UpdateRequest is the body of PATCH /api/items/{id}. Omitted fields are kept.
type UpdateRequest struct {
	Title  *string `json:"title,omitempty"`
	Artist *string `json:"artist,omitempty"`
	Genre  *string `json:"genre,omitempty"`
}

// DryRunResponse reports where a confirm would place the file.
type DryRunResponse struct {
	Destination             string `json:"destination"`
	FinalPath               string `json:"finalPath"`
	RootExists              bool   `json:"rootExists"`
	RootWritable            bool   `json:"rootWritable"`
	NearestExistingAncestor string `json:"nearestExistingAncestor"`
	AncestorWritable        bool   `json:"ancestorWritable"`
	WouldCollide            bool   `json:"wouldCollide"`
}

// ArtistMatch is one scored artist candidate.
type ArtistMatch struct {
	Name           string  `json:"name"`
	Score          float64 `json:"score"`
	TrackCount     int     `json:"trackCount"`
	NormalizedName string  `json:"normalizedName"`
}

// ArtistMatchResponse wraps scored artist candidates.
type ArtistMatchResponse struct {
	Query   string        `json:"query"`
	Matches []ArtistMatch `json:"matches"`
}

// Artist is a library artist with counts.
type Artist struct {
	Name       string `json:"name"`
	TrackCount int    `json:"trackCount"`
	AlbumCount int    `json:"albumCount"`
}

// ArtistListResponse wraps library artists.
type ArtistListResponse struct {
	Artists []Artist `json:"artists"`
}

// LibraryStats summarizes the indexed library.
type LibraryStats struct {
	Tracks          int   `json:"tracks"`
	Artists         int   `json:"artists"`
	Albums          int   `json:"albums"`
	Genres          int   `json:"genres"`
	WithArtwork     int   `json:"withArtwork"`
	TotalBytes      int64 `json:"totalBytes"`
	DurationSeconds int64 `json:"durationSeconds"`
}

// ScanError is one per-file failure of a pass.
type ScanError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	At      string `json:"at,omitempty"`
}

// ScanStatus is a point-in-time copy of a scanner worker.
type ScanStatus struct {
	Pass       string      `json:"pass"`
	IsScanning bool        `json:"isScanning"`
	Total      int         `json:"total"`
	Processed  int         `json:"processed"`
	Errors     []ScanError `json:"errors"`
	StartedAt  string      `json:"startedAt,omitempty"`
	FinishedAt string      `json:"finishedAt,omitempty"`
	LastError  string      `json:"lastError,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath"`
	LLMEnabled   bool           `json:"llmEnabled"`
	ItemCounts   map[string]int `json:"itemCounts"`
	Intake       ScanStatus     `json:"intake"`
	Library      ScanStatus     `json:"library"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
