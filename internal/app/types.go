package app

import "time"

type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Attachment is an inline payload carried by a message. Owned by the
// message that references it; never mutated after creation.
type Attachment struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
	Name     string `json:"name,omitempty"`
}

type GroundingChunk struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingMetadata carries web-grounding citations attached to a model
// response when the search tool was active.
type GroundingMetadata struct {
	Chunks []GroundingChunk `json:"chunks,omitempty"`
}

type Message struct {
	ID          string             `json:"id"`
	Role        Role               `json:"role"`
	Text        string             `json:"text"`
	Timestamp   time.Time          `json:"timestamp"`
	Attachments []Attachment       `json:"attachments,omitempty"`
	Grounding   *GroundingMetadata `json:"grounding_metadata,omitempty"`
}

// ChatSession is one conversation thread. Messages are only ever
// replaced wholesale via Store.ReplaceMessages; edits and regenerations
// produce new message ids rather than mutating existing ones.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	ModelID   string    `json:"model_id"`
	CreatedAt time.Time `json:"created_at"`
	IsPinned  bool      `json:"is_pinned,omitempty"`
}

// Principal is the signed-in identity. Its email partitions persisted
// storage so switching accounts never mixes session lists.
type Principal struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
}

type Persona struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	SystemInstruction string `json:"system_instruction"`
}

type PromptTemplate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

type SettingsState struct {
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p,omitempty"`
	TopK              float64 `json:"top_k,omitempty"`
	SystemInstruction string  `json:"system_instruction"`
	PersonaID         string  `json:"persona_id"`
}

func DefaultSettings() SettingsState {
	return SettingsState{
		Temperature: 0.7,
		PersonaID:   "default",
	}
}
