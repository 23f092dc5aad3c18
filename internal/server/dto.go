package server

import (
	"context"

	"northstar/internal/domain"
	"northstar/internal/engine"
	"northstar/internal/engine/directory"
)

// Request payloads

type KeyResultRequest struct {
	KRID     string  `json:"krId,omitempty"`
	Type     string  `json:"type" enum:"percent,target"`
	Title    string  `json:"title,omitempty"`
	Progress float64 `json:"progress,omitempty"`
	Current  float64 `json:"current,omitempty"`
	Target   float64 `json:"target,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

type CreateObjectiveRequest struct {
	ID          *string            `json:"id,omitempty"`
	Objective   string             `json:"objective"`
	Description *string            `json:"description,omitempty"`
	Category    string             `json:"category" enum:"individual,team"`
	Owners      []domain.OwnerRef  `json:"owners"`
	KeyResults  []KeyResultRequest `json:"keyResults,omitempty"`
	Status      *string            `json:"status,omitempty"`
	StartDate   *string            `json:"startDate,omitempty" format:"date"`
	EndDate     *string            `json:"endDate,omitempty" format:"date"`
	Department  *string            `json:"department,omitempty"`
}

type UpdateObjectiveRequest struct {
	Objective   *string            `json:"objective,omitempty"`
	Description *string            `json:"description,omitempty"`
	Category    *string            `json:"category,omitempty" enum:"individual,team"`
	Owners      []domain.OwnerRef  `json:"owners,omitempty"`
	KeyResults  []KeyResultRequest `json:"keyResults,omitempty"`
	Status      *string            `json:"status,omitempty"`
	StartDate   *string            `json:"startDate,omitempty" format:"date"`
	EndDate     *string            `json:"endDate,omitempty" format:"date"`
	Department  *string            `json:"department,omitempty"`
}

type CreateCommentRequest struct {
	Text string `json:"text"`
}

type MarkNotificationsReadRequest struct {
	IDs []string `json:"ids,omitempty"`
}

type UpsertUserRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

// Response payloads

type KeyResultResponse struct {
	KRID     string  `json:"krId"`
	Type     string  `json:"type" enum:"percent,target"`
	Title    string  `json:"title,omitempty"`
	Progress float64 `json:"progress"`
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
	Unit     string  `json:"unit,omitempty"`
	Complete bool    `json:"complete"`
}

type OwnerResponse struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type ObjectiveResponse struct {
	ID            string              `json:"id"`
	CreatedBy     string              `json:"createdBy"`
	Objective     string              `json:"objective"`
	Description   string              `json:"description,omitempty"`
	Category      string              `json:"category" enum:"individual,team"`
	Owners        []OwnerResponse     `json:"owners"`
	KeyResults    []KeyResultResponse `json:"keyResults"`
	Status        string              `json:"status"`
	DisplayStatus string              `json:"displayStatus"`
	StartDate     string              `json:"startDate,omitempty" format:"date"`
	EndDate       string              `json:"endDate,omitempty" format:"date"`
	Department    string              `json:"department,omitempty"`
	CreatedAt     string              `json:"createdAt" format:"date-time"`
	UpdatedAt     string              `json:"updatedAt" format:"date-time"`
}

type CommentResponse struct {
	ID          string   `json:"id"`
	ObjectiveID string   `json:"objectiveId"`
	AuthorID    string   `json:"authorId"`
	Text        string   `json:"text"`
	Mentions    []string `json:"mentions,omitempty"`
	CreatedAt   string   `json:"createdAt" format:"date-time"`
	UpdatedAt   string   `json:"updatedAt" format:"date-time"`
}

type NotificationResponse struct {
	ID          string                     `json:"id"`
	RecipientID string                     `json:"recipientId"`
	Type        string                     `json:"type"`
	Title       string                     `json:"title"`
	Message     string                     `json:"message"`
	Payload     domain.NotificationPayload `json:"payload"`
	Read        bool                       `json:"read"`
	ReadAt      *string                    `json:"readAt,omitempty" format:"date-time"`
	CreatedAt   string                     `json:"createdAt" format:"date-time"`
}

type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	CreatedAt  string `json:"createdAt" format:"date-time"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json,omitempty"`
}

// Mapping helpers

func keyResultsFromRequest(in []KeyResultRequest) []domain.KeyResult {
	out := make([]domain.KeyResult, 0, len(in))
	for _, kr := range in {
		out = append(out, domain.KeyResult{
			KRID:     kr.KRID,
			Type:     kr.Type,
			Title:    kr.Title,
			Progress: kr.Progress,
			Current:  kr.Current,
			Target:   kr.Target,
			Unit:     kr.Unit,
		})
	}
	return out
}

func objectiveResponse(ctx context.Context, e engine.Engine, o domain.Objective) (ObjectiveResponse, error) {
	enriched, err := e.EnrichOwners(ctx, o.Owners)
	if err != nil {
		return ObjectiveResponse{}, err
	}
	owners := make([]OwnerResponse, 0, len(enriched))
	for _, own := range enriched {
		owners = append(owners, OwnerResponse(own))
	}
	krs := make([]KeyResultResponse, 0, len(o.KeyResults))
	for _, kr := range o.KeyResults {
		krs = append(krs, KeyResultResponse{
			KRID:     kr.KRID,
			Type:     kr.Type,
			Title:    kr.Title,
			Progress: kr.Progress,
			Current:  kr.Current,
			Target:   kr.Target,
			Unit:     kr.Unit,
			Complete: kr.Complete(),
		})
	}
	return ObjectiveResponse{
		ID:            o.ID,
		CreatedBy:     o.CreatedBy,
		Objective:     o.Text,
		Description:   o.Description,
		Category:      o.Category,
		Owners:        owners,
		KeyResults:    krs,
		Status:        o.Status,
		DisplayStatus: o.DisplayStatus(),
		StartDate:     o.StartDate,
		EndDate:       o.EndDate,
		Department:    o.Department,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}, nil
}

func mapObjectives(ctx context.Context, e engine.Engine, items []domain.Objective) ([]ObjectiveResponse, error) {
	out := make([]ObjectiveResponse, 0, len(items))
	for _, o := range items {
		resp, err := objectiveResponse(ctx, e, o)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func commentResponse(c domain.Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID,
		ObjectiveID: c.ObjectiveID,
		AuthorID:    c.AuthorID,
		Text:        c.Text,
		Mentions:    c.Mentions,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func notificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		Payload:     n.Payload,
		Read:        n.Read,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

func userResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       directory.SafeDisplayName(u.Name),
		Email:      u.Email,
		AvatarURL:  u.AvatarURL,
		Role:       u.Role,
		Department: u.Department,
		CreatedAt:  u.CreatedAt,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    e.Payload,
	}
}
