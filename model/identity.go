package model

// RoleOwner is the privileged role: it may list and read every conversation
// but never initiates one.
const RoleOwner = "owner"

// CallerIdentity is supplied pre-validated by the upstream trusted layer and
// passed by value into every operation. An empty UserID means the caller is
// unidentified.
type CallerIdentity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	Role        string `json:"role"`
}

func (i CallerIdentity) Identified() bool {
	return i.UserID != ""
}

func (i CallerIdentity) Privileged() bool {
	return i.Role == RoleOwner
}
