package pkg

// ConversationMessage represents a message in conversation history
type ConversationMessage struct {
	Role    string `json:"role"` // user, assistant
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat. Location is the caller's current
// location: either "lat,lon" or free text.
type ChatRequest struct {
	Text     string                `json:"text"`
	Location string                `json:"location"`
	History  []ConversationMessage `json:"history"`
}

type ChatResponse struct {
	Message string `json:"message"`
}

// LocationRequest is the body of POST /location
type LocationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type LocationResponse struct {
	DisplayName    string            `json:"display_name"`
	AreaName       string            `json:"area_name"`
	AddressDetails map[string]string `json:"address_details"`
}

// HistoryEntry is one remembered conversation
type HistoryEntry struct {
	Summary      string   `json:"summary"`
	Location     string   `json:"location"`
	Timestamp    string   `json:"timestamp"`
	MessageCount int      `json:"message_count"`
	UserPrompts  []string `json:"user_prompts"`
}

// SearchHistoryResponse is returned by GET /search-history
type SearchHistoryResponse struct {
	Query              string         `json:"query"`
	Score              float64        `json:"score"`
	TotalConversations int            `json:"total_conversations"`
	LatestSummary      string         `json:"latest_summary"`
	LatestLocation     string         `json:"latest_location"`
	Results            []HistoryEntry `json:"results"`
}

// IngestRestaurantsRequest carries a restaurant knowledge markdown document
type IngestRestaurantsRequest struct {
	Content   string `json:"content"`
	Namespace string `json:"namespace"`
}

type IngestResponse struct {
	Ingested  int    `json:"ingested"`
	Skipped   int    `json:"skipped"`
	Namespace string `json:"namespace"`
}

// AskRequest is the body of POST /ask
type AskRequest struct {
	Question  string `json:"question"`
	Namespace string `json:"namespace"`
	K         int    `json:"k"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
