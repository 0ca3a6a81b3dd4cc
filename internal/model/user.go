// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered library account.
//
// We use GitHub OAuth as the identity provider, so the primary external
// identifier is the GitHub user ID (an integer). We still generate our own
// internal string ID (xid) so our primary keys aren't tied to a third-party's
// numbering scheme.
//
// WHY GitHubID int64?
// GitHub user IDs are integers (e.g. 1234567). Using int64 avoids overflow
// for large GitHub account numbers. The UNIQUE constraint on github_id in the
// DB ensures one GitHub account maps to exactly one app account.
//
// The profile fields (Login, DisplayName, ProfileURL, Provider) are
// denormalized copies of whatever GitHub returned on the MOST RECENT login —
// they are overwritten every time the user logs in. GitHub lets people hide
// or clear most of them, so empty strings are the zero value rather than
// nullable pointers.
type User struct {
	ID          string    `json:"id"          db:"id"`
	GitHubID    int64     `json:"githubId"    db:"github_id"`    // GitHub's numeric user ID
	Login       string    `json:"login"       db:"login"`        // GitHub username, e.g. "sakif"
	DisplayName string    `json:"displayName" db:"display_name"` // Full name (may be empty)
	ProfileURL  string    `json:"profileUrl"  db:"profile_url"`  // Link to the GitHub profile page
	Provider    string    `json:"provider"    db:"provider"`     // Identity provider name; always "github" today
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`   // First login; never changes afterwards
	LastLogin   time.Time `json:"lastLogin"   db:"last_login"`   // Bumped on every successful login
}
