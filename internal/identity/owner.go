// Package identity models who a cart or order belongs to: an authenticated
// user or an anonymous browser session. Exactly one of the two is ever set.
package identity

import "fmt"

type Owner struct {
	userID     string
	sessionKey string
}

func User(id string) Owner     { return Owner{userID: id} }
func Session(key string) Owner { return Owner{sessionKey: key} }

func (o Owner) IsAnonymous() bool { return o.userID == "" }
func (o Owner) IsZero() bool      { return o.userID == "" && o.sessionKey == "" }

func (o Owner) UserID() string     { return o.userID }
func (o Owner) SessionKey() string { return o.sessionKey }

// Topic is the notification channel scoped to this owner's connections.
func (o Owner) Topic() string {
	if o.IsAnonymous() {
		return fmt.Sprintf("session_%s", o.sessionKey)
	}
	return fmt.Sprintf("user_%s", o.userID)
}

func (o Owner) String() string {
	if o.IsAnonymous() {
		return "session:" + o.sessionKey
	}
	return "user:" + o.userID
}
