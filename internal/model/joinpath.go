package model

import (
	"errors"
	"fmt"
	"slices"
)

// Join path construction errors.
var (
	ErrJoinPlayerMismatch = errors.New("join roles must be played by the same object type")
	ErrJoinNotOnPath      = errors.New("first join role must already be on the join path")
	ErrJoinCycle          = errors.New("join would create a cycle in the join path")
)

// JoinPair equates the players of Out and In. Out lies on a relationship
// already on the path; In lies on the relationship the pair adds.
type JoinPair struct {
	Out *Role
	In  *Role
}

// JoinPath is a chain of relationships connected by equated roles, treated
// logically as one wide relationship.
type JoinPath struct {
	relationships []*Relationship
	joins         []JoinPair
}

// NewJoinPath creates an empty join path.
func NewJoinPath() *JoinPath {
	return &JoinPath{}
}

// AddJoin extends the path by joining out (on a relationship already on the
// path, unless the path is empty) with in (on a relationship not yet on it).
func (p *JoinPath) AddJoin(out, in *Role) error {
	if out.player != in.player {
		return fmt.Errorf("%w: %s, %s", ErrJoinPlayerMismatch, out.FullName(), in.FullName())
	}
	if len(p.relationships) > 0 && !slices.Contains(p.relationships, out.relationship) {
		return fmt.Errorf("%w: %s", ErrJoinNotOnPath, out.FullName())
	}
	if out.relationship == in.relationship || slices.Contains(p.relationships, in.relationship) {
		return fmt.Errorf("%w: %s", ErrJoinCycle, in.FullName())
	}
	if len(p.relationships) == 0 {
		p.relationships = []*Relationship{out.relationship}
	}
	p.relationships = append(p.relationships, in.relationship)
	p.joins = append(p.joins, JoinPair{Out: out, In: in})
	return nil
}

// Relationships returns the relationships in join order.
func (p *JoinPath) Relationships() []*Relationship { return slices.Clone(p.relationships) }

// Joins returns the join pairs in join order.
func (p *JoinPath) Joins() []JoinPair { return slices.Clone(p.joins) }

// Len returns the number of relationships traversed.
func (p *JoinPath) Len() int {
	if p == nil {
		return 0
	}
	return len(p.relationships)
}

// Includes reports whether rel is on the path.
func (p *JoinPath) Includes(rel *Relationship) bool {
	return p != nil && slices.Contains(p.relationships, rel)
}

// RoleSequence is an ordered list of roles, optionally spanning several
// relationships through a join path.
type RoleSequence struct {
	Roles    []*Role
	JoinPath *JoinPath
}

// Seq builds a RoleSequence with no join path.
func Seq(roles ...*Role) RoleSequence {
	return RoleSequence{Roles: roles}
}

func (s RoleSequence) clone() RoleSequence {
	return RoleSequence{Roles: slices.Clone(s.Roles), JoinPath: s.JoinPath}
}
