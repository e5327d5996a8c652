// Package keys defines every key shape stored in the kv store. Writers and
// readers build and parse keys only through these types.
package keys

import (
	"fmt"

	"linkframe/internal/kv"
)

const (
	shortLinksRoot = "shortlinks"
	usersRoot      = "users"
	sessionsRoot   = "sessions"
	analyticsRoot  = "analytics"
	shortCodesPart = "shortcodes"
)

// ShortLink addresses ("shortlinks", code).
type ShortLink struct {
	ShortCode string
}

func (k ShortLink) Key() kv.Key {
	return kv.Key{shortLinksRoot, k.ShortCode}
}

func ShortLinksPrefix() kv.Key {
	return kv.Key{shortLinksRoot}
}

func ParseShortLink(key kv.Key) (ShortLink, error) {
	if len(key) != 2 || key[0] != shortLinksRoot {
		return ShortLink{}, malformed("short link", key)
	}
	code, ok := key[1].(string)
	if !ok {
		return ShortLink{}, malformed("short link", key)
	}
	return ShortLink{ShortCode: code}, nil
}

// OwnerIndex addresses ("users", email, "shortcodes", code). The value is
// unused; presence is the index entry.
type OwnerIndex struct {
	OwnerEmail string
	ShortCode  string
}

func (k OwnerIndex) Key() kv.Key {
	return kv.Key{usersRoot, k.OwnerEmail, shortCodesPart, k.ShortCode}
}

func OwnerIndexPrefix(ownerEmail string) kv.Key {
	return kv.Key{usersRoot, ownerEmail, shortCodesPart}
}

func ParseOwnerIndex(key kv.Key) (OwnerIndex, error) {
	if len(key) != 4 || key[0] != usersRoot || key[2] != shortCodesPart {
		return OwnerIndex{}, malformed("owner index", key)
	}
	email, ok1 := key[1].(string)
	code, ok2 := key[3].(string)
	if !ok1 || !ok2 {
		return OwnerIndex{}, malformed("owner index", key)
	}
	return OwnerIndex{OwnerEmail: email, ShortCode: code}, nil
}

// User addresses ("users", email).
type User struct {
	EmailAddress string
}

func (k User) Key() kv.Key {
	return kv.Key{usersRoot, k.EmailAddress}
}

// Session addresses ("sessions", id).
type Session struct {
	ID string
}

func (k Session) Key() kv.Key {
	return kv.Key{sessionsRoot, k.ID}
}

// Analytics addresses ("analytics", code, seq).
type Analytics struct {
	ShortCode      string
	SequenceNumber int64
}

func (k Analytics) Key() kv.Key {
	return kv.Key{analyticsRoot, k.ShortCode, k.SequenceNumber}
}

// String is the reference stored in ShortLink.LastClickEvent.
func (k Analytics) String() string {
	return fmt.Sprintf("%s/%s/%d", analyticsRoot, k.ShortCode, k.SequenceNumber)
}

func AnalyticsPrefix(shortCode string) kv.Key {
	return kv.Key{analyticsRoot, shortCode}
}

func ParseAnalytics(key kv.Key) (Analytics, error) {
	if len(key) != 3 || key[0] != analyticsRoot {
		return Analytics{}, malformed("analytics", key)
	}
	code, ok1 := key[1].(string)
	seq, ok2 := key[2].(int64)
	if !ok1 || !ok2 {
		return Analytics{}, malformed("analytics", key)
	}
	return Analytics{ShortCode: code, SequenceNumber: seq}, nil
}

func malformed(kind string, key kv.Key) error {
	return fmt.Errorf("%w: malformed %s key %s", kv.ErrInvalidKey, kind, key)
}
