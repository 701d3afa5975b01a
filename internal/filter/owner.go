package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harrison/sift/internal/models"
)

// IDCheck compares one numeric owner ID, optionally negated.
type IDCheck struct {
	ID      uint32
	Negated bool
}

func (c IDCheck) matches(id uint32) bool {
	return (id == c.ID) != c.Negated
}

func (c IDCheck) String() string {
	if c.Negated {
		return fmt.Sprintf("!%d", c.ID)
	}
	return strconv.FormatUint(uint64(c.ID), 10)
}

// IdentityResolver maps user and group names to numeric IDs.
type IdentityResolver interface {
	LookupUser(name string) (uint32, error)
	LookupGroup(name string) (uint32, error)
}

// OwnerFilter matches entries by owning uid and/or gid.
// A nil side places no constraint on that side.
type OwnerFilter struct {
	User  *IDCheck
	Group *IDCheck
}

// ParseOwner parses "[!]user|uid[:[!]group|gid]" resolving names against the
// system identity database.
func ParseOwner(text string) (OwnerFilter, error) {
	if !Available().Owner {
		return OwnerFilter{}, newParseError("owner", text, ErrUnsupportedOnPlatform)
	}
	return ParseOwnerWith(text, systemResolver{})
}

// ParseOwnerWith parses an owner specification using the given resolver.
// Names that do not resolve are a parse error; numeric IDs are taken as is.
func ParseOwnerWith(text string, resolver IdentityResolver) (OwnerFilter, error) {
	userPart, groupPart, _ := strings.Cut(text, ":")
	if strings.Contains(groupPart, ":") {
		return OwnerFilter{}, newParseError("owner", text, fmt.Errorf("%w: more than one ':'", ErrInvalidOwner))
	}

	user, err := parseIDCheck(userPart, resolver.LookupUser, ErrUnknownUser)
	if err != nil {
		return OwnerFilter{}, newParseError("owner", text, err)
	}
	group, err := parseIDCheck(groupPart, resolver.LookupGroup, ErrUnknownGroup)
	if err != nil {
		return OwnerFilter{}, newParseError("owner", text, err)
	}

	if user == nil && group == nil {
		return OwnerFilter{}, newParseError("owner", text, ErrInvalidOwner)
	}
	return OwnerFilter{User: user, Group: group}, nil
}

func parseIDCheck(clause string, lookup func(string) (uint32, error), unknown error) (*IDCheck, error) {
	if clause == "" {
		return nil, nil
	}
	check := &IDCheck{}
	if rest, ok := strings.CutPrefix(clause, "!"); ok {
		check.Negated = true
		clause = rest
	}

	if id, err := strconv.ParseUint(clause, 10, 32); err == nil {
		check.ID = uint32(id)
		return check, nil
	}

	id, err := lookup(clause)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", unknown, clause)
	}
	check.ID = id
	return check, nil
}

// Name returns the filter kind.
func (f OwnerFilter) Name() string {
	return "owner"
}

// MatchesIDs applies each present side and ANDs the results.
func (f OwnerFilter) MatchesIDs(uid, gid uint32) bool {
	if f.User != nil && !f.User.matches(uid) {
		return false
	}
	if f.Group != nil && !f.Group.matches(gid) {
		return false
	}
	return true
}

// Matches reports whether the entry's owner satisfies the filter.
func (f OwnerFilter) Matches(e *models.Entry) (bool, error) {
	info, err := e.Metadata()
	if err != nil || info == nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMetadataUnavailable, e.Path, err)
	}
	uid, gid, ok := ownerIDs(info)
	if !ok {
		return false, fmt.Errorf("%w: %s: no ownership information", ErrMetadataUnavailable, e.Path)
	}
	return f.MatchesIDs(uid, gid), nil
}

// String renders the filter with numeric IDs, which ParseOwner accepts.
func (f OwnerFilter) String() string {
	var b strings.Builder
	if f.User != nil {
		b.WriteString(f.User.String())
	}
	if f.Group != nil {
		b.WriteByte(':')
		b.WriteString(f.Group.String())
	}
	return b.String()
}
