package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainFingerprint prefixes the fingerprint hash. The version suffix allows
// the snapshot layout to change without colliding with older fingerprints.
const DomainFingerprint = "ormminus/model/v1"

// Snapshot returns a name-keyed, ID-free description of the graph. Elements
// appear in model order, so two graphs built by the same sequence of edits
// produce identical snapshots regardless of their ID generators.
func Snapshot(m *Model) map[string]any {
	objs := make([]any, 0, m.ObjectTypes.Len())
	for _, o := range m.ObjectTypes.All() {
		objs = append(objs, snapshotObjectType(o))
	}
	rels := make([]any, 0, m.Relationships.Len())
	for _, r := range m.Relationships.All() {
		rels = append(rels, snapshotRelationship(r))
	}
	cons := make([]any, 0, m.Constraints.Len())
	for _, c := range m.Constraints.All() {
		cons = append(cons, snapshotConstraint(c))
	}
	return map[string]any{
		"object_types":  objs,
		"relationships": rels,
		"constraints":   cons,
	}
}

// Canonical returns the RFC 8785 encoding of Snapshot(m).
func Canonical(m *Model) ([]byte, error) {
	return MarshalCanonical(Snapshot(m))
}

// Fingerprint returns SHA256(DomainFingerprint + 0x00 + Canonical(m)) in hex.
func Fingerprint(m *Model) (string, error) {
	data, err := Canonical(m)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainFingerprint))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func snapshotObjectType(o *ObjectType) map[string]any {
	out := map[string]any{
		"name":        o.Name(),
		"kind":        o.Kind.String(),
		"independent": o.Independent,
		"data_type":   o.DataType,
		"supertypes":  namesOf(o.supertypes),
		"ref_roles":   fullNames(o.refRoles),
	}
	if o.Nests != nil {
		out["nests"] = o.Nests.Name()
	}
	if o.identifying != nil {
		out["identified_by"] = o.identifying.Name()
	}
	return out
}

func snapshotRelationship(r *Relationship) map[string]any {
	roles := make([]any, 0, len(r.roles))
	for _, role := range r.roles {
		entry := map[string]any{
			"name":   role.Name(),
			"player": role.player.Name(),
		}
		if role.source != "" {
			entry["source"] = role.source
		}
		if role.root != nil {
			entry["root"] = role.root.FullName()
		}
		roles = append(roles, entry)
	}
	return map[string]any{"name": r.Name(), "roles": roles}
}

func snapshotConstraint(c Constraint) map[string]any {
	out := map[string]any{"name": c.Name(), "kind": c.Kind().String()}
	switch v := c.(type) {
	case *FrequencyConstraint:
		out["roles"] = fullNames(v.roles)
		out["min"] = v.min
		if v.max != Unbounded {
			out["max"] = v.max
		}
		if v.identifierFor != nil {
			out["identifier_for"] = v.identifierFor.Name()
		}
		if v.joinPath != nil {
			out["join_path"] = snapshotJoinPath(v.joinPath)
		}
	case *MandatoryConstraint:
		out["roles"] = fullNames(v.roles)
	case *ValueConstraint:
		out["target"] = QualifiedName(v.target)
		vals := make([]any, 0, v.domain.Len())
		for _, val := range v.domain.Values() {
			vals = append(vals, canonicalValue(val))
		}
		out["values"] = vals
	case *SubsetConstraint:
		out["subset"] = snapshotSequence(v.subset)
		out["superset"] = snapshotSequence(v.superset)
	case *SubtypeConstraint:
		out["subtype"] = v.subtype.Name()
		out["supertype"] = v.supertype.Name()
		out["preferred_id"] = v.preferredID
	case *RingConstraint:
		out["roles"] = fullNames(v.roles)
		out["ring_kind"] = v.RingKind
	case *CardinalityConstraint:
		out["target"] = QualifiedName(v.target)
		ranges := make([]string, len(v.Ranges))
		for i, r := range v.Ranges {
			ranges[i] = r.String()
		}
		out["ranges"] = ranges
	}
	return out
}

func snapshotSequence(s RoleSequence) map[string]any {
	out := map[string]any{"roles": fullNames(s.Roles)}
	if s.JoinPath != nil {
		out["join_path"] = snapshotJoinPath(s.JoinPath)
	}
	return out
}

func snapshotJoinPath(p *JoinPath) map[string]any {
	joins := make([]any, 0, len(p.joins))
	for _, j := range p.joins {
		joins = append(joins, []string{j.Out.FullName(), j.In.FullName()})
	}
	return map[string]any{
		"relationships": namesOf(p.relationships),
		"joins":         joins,
	}
}

func namesOf[T Element](elems []T) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.Name()
	}
	return out
}

func fullNames(roles []*Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.FullName()
	}
	return out
}
