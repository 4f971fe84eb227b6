package sessions

import "time"

// Reason names why a session was forcibly ended.
type Reason string

const (
	ReasonRefreshFailed    Reason = "refresh_failed"
	ReasonNoRefreshToken   Reason = "no_refresh_token"
	ReasonInactivity       Reason = "inactivity"
	ReasonTokenUndecodable Reason = "token_undecodable"
	ReasonTokenExpired     Reason = "token_expired"
)

// Message is the text shown to the user when a session expires.
const Message = "Session expired. Please log in again."

// ExpiryEvent is delivered to subscribers when the session expiry signal is raised.
type ExpiryEvent struct {
	Reason Reason
	At     time.Time
}

// Status is a point-in-time view of the session.
type Status struct {
	LoggedIn    bool          // A credential record with an access token is stored
	CanRefresh  bool          // The record carries a refresh token
	ExpiresAt   time.Time     // Access token exp claim, zero when undecodable
	Expired     bool          // The expiry signal is raised
	Reason      Reason        // Reason for the last expiry, if any
	NextRefresh time.Duration // Delay the proactive refresh was last armed with
}
