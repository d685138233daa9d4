package notifications

import (
	"encoding/json"
	"fmt"
)

// Event names delivered to websocket clients.
const (
	EventCircleInviteReceived     = "circle_invite_received"
	EventCircleJoinRequested      = "circle_join_requested"
	EventCircleMembershipApproved = "circle_membership_approved"
	EventFollowRequested          = "follow_requested"
	EventFollowAccepted           = "follow_accepted"
	EventUserFollowed             = "user_followed"
	EventListShared               = "list_shared"
	EventPostLiked                = "post_liked"
	EventPostCommented            = "post_commented"
	EventCircleRecommendation     = "circle_recommendation"
)

// Event is the JSON frame written to a websocket client.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode renders the event as a websocket text frame.
func (e Event) Encode() (string, error) {
	if e.Type == "" {
		return "", fmt.Errorf("event type is required")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return string(b), nil
}

// envelope wraps a frame on the redis channel so the publishing instance can
// skip its own messages; that instance has already delivered locally.
type envelope struct {
	Origin  string `json:"origin"`
	Message string `json:"message"`
}
