package contracts

type ActivityDeltaRequest struct {
	Points  int    `json:"points"`
	EventID string `json:"event_id,omitempty"`
}

type OverrideRequest struct {
	TargetUserID string         `json:"target_user_id"`
	ActionType   string         `json:"action_type"`
	Before       StateSnapshot  `json:"before"`
	After        StateSnapshot  `json:"after"`
	Reason       string         `json:"reason"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// StateSnapshot is the wire form of an audit before/after state. Only the
// fields relevant to the action type are present.
type StateSnapshot struct {
	Score       *int         `json:"score,omitempty"`
	Tier        *string      `json:"tier,omitempty"`
	Restriction *Restriction `json:"restriction,omitempty"`
	Flag        *string      `json:"flag,omitempty"`
}

type Restriction struct {
	Kind      string  `json:"kind"`
	Reason    string  `json:"reason"`
	AppliedBy string  `json:"applied_by,omitempty"`
	AppliedAt string  `json:"applied_at,omitempty"`
	ExpiresAt *string `json:"expires_at,omitempty"`
}

type RestrictionRequest struct {
	TargetUserID string  `json:"target_user_id"`
	Kind         string  `json:"kind"`
	Reason       string  `json:"reason"`
	ExpiresAt    *string `json:"expires_at,omitempty"`
}

type RemoveRestrictionRequest struct {
	Reason string `json:"reason"`
}

type BulkReviewRequest struct {
	Action         string   `json:"action"`
	ApplicationIDs []string `json:"application_ids"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}
