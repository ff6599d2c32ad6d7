package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Credential store keys. The layout mirrors what storefront clients persist,
// including the authToken alias kept for older clients.
const (
	KeyToken     = "token"
	KeyAuthToken = "authToken"
	KeyUserID    = "userId"
	KeyRoleID    = "roleId"
	KeyRoleName  = "roleName"
	KeyFirstName = "userFname"
	KeyLastName  = "userLname"
	KeyUser      = "user"
)

// SessionKeys lists every key owned by a credential record. Clearing a
// session removes exactly these keys.
var SessionKeys = []string{
	KeyToken,
	KeyAuthToken,
	KeyUserID,
	KeyRoleID,
	KeyRoleName,
	KeyFirstName,
	KeyLastName,
	KeyUser,
}

// Role is the backend role attached to a user profile.
type Role struct {
	ID   int    `json:"roleId"`
	Name string `json:"roleName"`
}

// AdminPolicy decides which roles count as administrators.
// The zero value never grants admin; use DefaultAdminPolicy.
type AdminPolicy struct {
	RoleName string
	RoleID   int
}

// DefaultAdminPolicy treats role "admin" (any case) or role id 1 as admin.
func DefaultAdminPolicy() AdminPolicy {
	return AdminPolicy{RoleName: "admin", RoleID: 1}
}

// IsAdmin reports whether the role satisfies the policy.
func (p AdminPolicy) IsAdmin(r Role) bool {
	if p.RoleName != "" && strings.EqualFold(strings.TrimSpace(r.Name), p.RoleName) {
		return true
	}
	return p.RoleID != 0 && r.ID == p.RoleID
}

// UserProfile is the identity of the signed-in customer or staff member.
type UserProfile struct {
	UserID      int       `json:"userId"`
	FirstName   string    `json:"userFname"`
	LastName    string    `json:"userLname"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	CreatedDate time.Time `json:"createdDate"`
	UpdatedDate time.Time `json:"updatedDate"`
}

// DisplayName returns "First Last" trimmed, or the email when both are empty.
func (u UserProfile) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// CredentialRecord is everything persisted for one signed-in client.
// Token presence alone decides whether there is a session to restore.
type CredentialRecord struct {
	Token    string
	UserID   string
	RoleID   string
	RoleName string
	// FirstName and LastName are the identity fragments kept alongside the profile.
	FirstName string
	LastName  string
	// Profile is the cached user profile; nil when none was stored or it failed to parse.
	Profile *UserProfile
}

// HasToken reports whether the record carries a usable token.
func (r CredentialRecord) HasToken() bool {
	return NormalizeToken(r.Token) != ""
}

// RecordFromProfile builds a complete record for token and profile.
func RecordFromProfile(token string, p UserProfile) CredentialRecord {
	cp := p
	return CredentialRecord{
		Token:     NormalizeToken(token),
		UserID:    strconv.Itoa(p.UserID),
		RoleID:    strconv.Itoa(p.Role.ID),
		RoleName:  p.Role.Name,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Profile:   &cp,
	}
}

// Entries flattens the record into store keys. The token is written under
// both the primary key and the authToken alias. Every tracked key is
// present so a save fully replaces the previous record; without a profile
// the user key is blank.
func (r CredentialRecord) Entries() (map[string]string, error) {
	token := NormalizeToken(r.Token)
	entries := map[string]string{
		KeyToken:     token,
		KeyAuthToken: token,
		KeyUserID:    r.UserID,
		KeyRoleID:    r.RoleID,
		KeyRoleName:  r.RoleName,
		KeyFirstName: r.FirstName,
		KeyLastName:  r.LastName,
		KeyUser:      "",
	}
	if r.Profile != nil {
		data, err := json.Marshal(r.Profile)
		if err != nil {
			return nil, err
		}
		entries[KeyUser] = string(data)
	}
	return entries, nil
}

// RecordFromEntries rebuilds a record from raw store values. A corrupt
// profile blob is reported through profileErr but does not fail the record.
func RecordFromEntries(values map[string]string) (rec CredentialRecord, profileErr error) {
	token := values[KeyToken]
	if NormalizeToken(token) == "" {
		token = values[KeyAuthToken]
	}
	rec = CredentialRecord{
		Token:     NormalizeToken(token),
		UserID:    values[KeyUserID],
		RoleID:    values[KeyRoleID],
		RoleName:  values[KeyRoleName],
		FirstName: values[KeyFirstName],
		LastName:  values[KeyLastName],
	}
	if raw := strings.TrimSpace(values[KeyUser]); raw != "" {
		var p UserProfile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return rec, err
		}
		rec.Profile = &p
	}
	return rec, nil
}

// NormalizeToken strips surrounding whitespace and any wrapping double
// quotes left behind when a token was JSON-encoded as a bare string.
func NormalizeToken(raw string) string {
	t := strings.TrimSpace(raw)
	t = strings.TrimPrefix(t, `"`)
	t = strings.TrimSuffix(t, `"`)
	return strings.TrimSpace(t)
}

// PlaceholderProfile synthesizes a profile from stored fragments when no
// cached profile exists. Missing names default to "Customer".
func PlaceholderProfile(rec CredentialRecord, now time.Time) UserProfile {
	userID, _ := strconv.Atoi(strings.TrimSpace(rec.UserID))
	roleID, _ := strconv.Atoi(strings.TrimSpace(rec.RoleID))
	first := rec.FirstName
	if first == "" {
		first = "Customer"
	}
	return UserProfile{
		UserID:      userID,
		FirstName:   first,
		LastName:    rec.LastName,
		Role:        Role{ID: roleID, Name: rec.RoleName},
		CreatedDate: now,
		UpdatedDate: now,
	}
}

// LoginResult is what the backend returned for a successful login: the
// bearer token plus whatever identity hints the endpoint included.
type LoginResult struct {
	Token     string
	UserID    string
	RoleID    string
	RoleName  string
	FirstName string
	LastName  string
}

// HasRole reports whether the backend told us the user's role.
func (r LoginResult) HasRole() bool {
	return strings.TrimSpace(r.RoleID) != "" || strings.TrimSpace(r.RoleName) != ""
}

// Record converts the hints into a credential record without a profile.
func (r LoginResult) Record() CredentialRecord {
	return CredentialRecord{
		Token:     NormalizeToken(r.Token),
		UserID:    r.UserID,
		RoleID:    r.RoleID,
		RoleName:  r.RoleName,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// State is the read-only view of a session handed to views and handlers.
type State struct {
	CurrentUser     *UserProfile `json:"currentUser"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsAdmin         bool         `json:"isAdmin"`
	Loading         bool         `json:"loading"`
}
