package linkedin

// Snapshot domains the service pulls. The export API groups data by domain;
// posts live under MEMBER_SHARE_INFO.
const (
	DomainMemberShareInfo = "MEMBER_SHARE_INFO"
	DomainProfile         = "PROFILE"
)

type snapshotEnvelope struct {
	Elements []snapshotElement `json:"elements"`
}

type snapshotElement struct {
	SnapshotDomain string           `json:"snapshotDomain"`
	SnapshotData   []map[string]any `json:"snapshotData"`
}

type changelogEnvelope struct {
	Elements []ChangelogEvent `json:"elements"`
}

// ChangelogEvent is one create/update event from the member changelog feed.
// The feed covers only a trailing window (28 days) and carries no
// engagement counts.
type ChangelogEvent struct {
	ID           int64          `json:"id"`
	ResourceName string         `json:"resourceName"`
	ResourceID   string         `json:"resourceId"`
	Method       string         `json:"method"`
	Activity     map[string]any `json:"activity"`
	CapturedAt   int64          `json:"capturedAt"`
	ProcessedAt  int64          `json:"processedAt"`
}

type authorizationEnvelope struct {
	Elements []authorizationElement `json:"elements"`
}

type authorizationElement struct {
	Key struct {
		Member string `json:"member"`
	} `json:"memberComplianceAuthorizationKey"`
	RegulatedAt int64    `json:"regulatedAt"`
	Scopes      []string `json:"memberComplianceScopes"`
}

// MemberAuthorization is the member's DMA consent state. Data portability
// endpoints only work while consent is active.
type MemberAuthorization struct {
	MemberURN   string   `json:"memberUrn"`
	Active      bool     `json:"active"`
	Scopes      []string `json:"scopes,omitempty"`
	RegulatedAt int64    `json:"regulatedAt,omitempty"`
}
