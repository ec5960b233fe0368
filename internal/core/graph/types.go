package graph

// FollowState is the outcome of a follow toggle
type FollowState string

const (
	FollowStateFollowed   FollowState = "followed"
	FollowStateUnfollowed FollowState = "unfollowed"
)

// FollowEdge is a directed edge: FollowerID follows FollowingID
type FollowEdge struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId"`
}

// ReconcileReport describes the symmetric difference found between the two
// follow mirrors and what was done about it. The following mirror is
// authoritative.
type ReconcileReport struct {
	// MissingFollowers are edges present in following but absent from followers
	MissingFollowers []FollowEdge `json:"missingFollowers"`

	// OrphanFollowers are edges present in followers with no following counterpart
	OrphanFollowers []FollowEdge `json:"orphanFollowers"`

	FollowingEdges int `json:"followingEdges"`
	FollowerEdges  int `json:"followerEdges"`
	Repaired       int `json:"repaired"`
	Failed         int `json:"failed"`

	// Skipped edges already agreed when re-checked; a toggle settled them after the scan
	Skipped int  `json:"skipped"`
	DryRun  bool `json:"dryRun"`
}

// Consistent reports whether both mirrors agreed when scanned
func (r *ReconcileReport) Consistent() bool {
	return len(r.MissingFollowers) == 0 && len(r.OrphanFollowers) == 0
}

// ToggleFollowResponse is returned by the toggle-follow endpoint
type ToggleFollowResponse struct {
	State FollowState `json:"state"`
}

// ToggleLikeResponse is returned by the toggle-like endpoint
type ToggleLikeResponse struct {
	Liked bool `json:"liked"`
}
