package domain

import (
	"bytes"
	"encoding/json"
)

// Objective statuses. The first five are "live"; archived and deleted are
// reached through dedicated transitions. Purged objectives are removed rows,
// never a stored value.
const (
	StatusActive    = "active"
	StatusOnTrack   = "on_track"
	StatusAtRisk    = "at_risk"
	StatusOffTrack  = "off_track"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
	StatusDeleted   = "deleted"
)

const (
	CategoryIndividual = "individual"
	CategoryTeam       = "team"
)

// LiveStatuses are the statuses an objective can carry while it is neither
// archived nor deleted.
var LiveStatuses = []string{StatusActive, StatusOnTrack, StatusAtRisk, StatusOffTrack, StatusCompleted}

func IsLiveStatus(s string) bool {
	for _, v := range LiveStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func IsValidStatus(s string) bool {
	return IsLiveStatus(s) || s == StatusArchived || s == StatusDeleted
}

func IsValidCategory(c string) bool {
	return c == CategoryIndividual || c == CategoryTeam
}

type Objective struct {
	ID          string      `json:"id"`
	CreatedBy   string      `json:"createdBy"`
	Text        string      `json:"objective"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category" enum:"individual,team"`
	Owners      []OwnerRef  `json:"owners"`
	KeyResults  []KeyResult `json:"keyResults"`
	Status      string      `json:"status" enum:"active,on_track,at_risk,off_track,completed,archived,deleted"`
	StartDate   string      `json:"startDate,omitempty" format:"date"`
	EndDate     string      `json:"endDate,omitempty" format:"date"`
	Department  string      `json:"department,omitempty"`
	CreatedAt   string      `json:"createdAt" format:"date-time"`
	UpdatedAt   string      `json:"updatedAt" format:"date-time"`
}

// OwnerRef is a weak reference into the user directory. Historical payloads
// carry owners either as bare id strings or as partial objects keyed by
// "_id" or "userId"; both decode into the same shape.
type OwnerRef struct {
	UserID    string `json:"userId"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func (o *OwnerRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*o = OwnerRef{UserID: id}
		return nil
	}
	var raw struct {
		LegacyID  string `json:"_id"`
		UserID    string `json:"userId"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	id := raw.UserID
	if id == "" {
		id = raw.LegacyID
	}
	*o = OwnerRef{UserID: id, Name: raw.Name, AvatarURL: raw.AvatarURL}
	return nil
}

type Comment struct {
	ID          string   `json:"id"`
	ObjectiveID string   `json:"objectiveId"`
	AuthorID    string   `json:"authorId"`
	Text        string   `json:"text"`
	Mentions    []string `json:"mentions,omitempty"`
	Deleted     bool     `json:"deleted,omitempty"`
	CreatedAt   string   `json:"createdAt" format:"date-time"`
	UpdatedAt   string   `json:"updatedAt" format:"date-time"`
}

const NotificationTypeMention = "mention"

type NotificationPayload struct {
	ObjectiveID    string `json:"objectiveId"`
	ObjectiveTitle string `json:"objectiveTitle"`
	CommentID      string `json:"commentId"`
	CommentText    string `json:"commentText"`
	CommenterID    string `json:"commenterId"`
	CommenterName  string `json:"commenterName"`
}

type Notification struct {
	ID          string              `json:"id"`
	RecipientID string              `json:"recipientId"`
	Type        string              `json:"type"`
	Title       string              `json:"title"`
	Message     string              `json:"message"`
	Payload     NotificationPayload `json:"payload"`
	Read        bool                `json:"read"`
	ReadAt      *string             `json:"readAt,omitempty" format:"date-time"`
	Deleted     bool                `json:"deleted,omitempty"`
	CreatedAt   string              `json:"createdAt" format:"date-time"`
}

type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	CreatedAt  string `json:"createdAt" format:"date-time"`
}

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
