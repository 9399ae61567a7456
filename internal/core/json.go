package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// MarshalJSON writes YYYY-MM-DD, or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	y, m, day := t.Date()
	*d = NewDate(y, int(m), day)
	return nil
}

// UnmarshalJSON accepts a nested user object or a bare primary key.
func (u *User) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] != '{' {
		var id int64
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*u = User{ID: id}
		return nil
	}
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	return nil
}

// UnmarshalJSON accepts both the nested form ({"user": {...}}) and the flat
// form where username and email sit next to a user id.
func (p *Participant) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID       int64     `json:"id"`
		User     User      `json:"user"`
		Username string    `json:"username"`
		Email    string    `json:"email"`
		JoinedAt time.Time `json:"joined_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.User.Username == "" {
		aux.User.Username = aux.Username
	}
	if aux.User.Email == "" {
		aux.User.Email = aux.Email
	}
	*p = Participant{ID: aux.ID, User: aux.User, JoinedAt: aux.JoinedAt}
	return nil
}
