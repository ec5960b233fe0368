package postgres

import (
	"database/sql"
	"time"

	"Flock/internal/core/users"
)

// profileColumns selects what a ProfileView needs from a users alias
func profileColumns(alias string) string {
	return alias + ".id, " + alias + ".username, " + alias + ".fullname, " + alias + ".avatar, " + alias + ".last_seen"
}

// nullableProfile scans a profile from an outer join
type nullableProfile struct {
	id, username, fullname, avatar sql.NullString
	lastSeen                       sql.NullTime
}

func (p *nullableProfile) dest() []any {
	return []any{&p.id, &p.username, &p.fullname, &p.avatar, &p.lastSeen}
}

func (p *nullableProfile) view() *users.ProfileView {
	if !p.id.Valid {
		return nil
	}
	return profileOf(p.id.String, p.username.String, p.fullname.String, p.avatar.String, p.lastSeen.Time)
}

// profile scans a profile from an inner join
type profile struct {
	lastSeen                       time.Time
	id, username, fullname, avatar string
}

func (p *profile) dest() []any {
	return []any{&p.id, &p.username, &p.fullname, &p.avatar, &p.lastSeen}
}

func (p *profile) view() *users.ProfileView {
	return profileOf(p.id, p.username, p.fullname, p.avatar, p.lastSeen)
}

func profileOf(id, username, fullname, avatar string, lastSeen time.Time) *users.ProfileView {
	u := &users.User{
		ID:       id,
		Username: username,
		Fullname: fullname,
		Avatar:   avatar,
		LastSeen: lastSeen,
	}
	return u.View()
}
