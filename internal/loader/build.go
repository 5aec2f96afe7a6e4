package loader

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ormminus/internal/model"
)

// Result is a loaded schema: the graph plus descriptions of the input the
// graph does not represent.
type Result struct {
	Name    string
	Model   *model.Model
	Dropped []string
}

// Option configures loading.
type Option func(*options)

type options struct {
	ids model.IDGenerator
}

// WithIDGenerator sets the element ID generator of the built model.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// Build turns a decoded document into a schema graph. Every problem is
// collected; the result is nil when any problem was found.
func Build(doc *Document, opts ...Option) (*Result, []error) {
	res, errs := build(doc, opts)
	if len(errs) > 0 {
		out := make([]error, len(errs))
		for i, e := range errs {
			out[i] = &LoadError{Code: e.code, Message: e.at.String() + ": " + e.message}
		}
		return nil, out
	}
	return res, nil
}

type builder struct {
	m       *model.Model
	types   map[string]*model.ObjectType
	rels    map[string]*model.Relationship
	derived map[string]bool
	dropped []string
	errs    []buildError
}

func build(doc *Document, opts []Option) (*Result, []buildError) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	var mopts []model.Option
	if o.ids != nil {
		mopts = append(mopts, model.WithIDGenerator(o.ids))
	}
	b := &builder{
		m:       model.New(mopts...),
		types:   make(map[string]*model.ObjectType),
		rels:    make(map[string]*model.Relationship),
		derived: make(map[string]bool),
	}

	for i, od := range doc.ObjectTypes {
		b.objectType(location{"object_types", i, ""}, od)
	}
	for i, rd := range doc.Relationships {
		b.relationship(location{"relationships", i, ""}, rd)
	}
	for i, od := range doc.ObjectTypes {
		b.nesting(location{"object_types", i, "nests"}, od)
	}
	seen := make(map[string]bool)
	for i, cd := range doc.Constraints {
		at := location{"constraints", i, ""}
		if cd.Name == "" {
			b.fail(ErrCodeMissingField, at.with("name"), "constraint name is required")
			continue
		}
		key := norm.NFC.String(cd.Name)
		if seen[key] {
			b.fail(ErrCodeDuplicateName, at.with("name"), "constraint %q declared twice", cd.Name)
			continue
		}
		seen[key] = true
		b.constraint(at, cd)
	}
	for _, rule := range doc.Rules {
		b.dropped = append(b.dropped, "derivation rule: "+rule)
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return &Result{Name: doc.Name, Model: b.m, Dropped: b.dropped}, nil
}

func (l location) with(field string) location {
	l.field = field
	return l
}

func (b *builder) fail(code string, at location, format string, args ...any) {
	b.errs = append(b.errs, buildError{code: code, message: fmt.Sprintf(format, args...), at: at})
}

func (b *builder) objectType(at location, od ObjectTypeDoc) {
	if od.Name == "" {
		b.fail(ErrCodeMissingField, at.with("name"), "object type name is required")
		return
	}
	key := norm.NFC.String(od.Name)
	if _, dup := b.types[key]; dup {
		b.fail(ErrCodeDuplicateName, at.with("name"), "object type %q declared twice", od.Name)
		return
	}
	var kind model.ObjectKind
	switch od.Kind {
	case "", "entity":
		kind = model.EntityType
	case "value":
		kind = model.ValueType
	case "objectified":
		kind = model.ObjectifiedType
	default:
		b.fail(ErrCodeInvalidKind, at.with("kind"), "unknown object type kind %q", od.Kind)
		return
	}
	o := model.NewObjectType(od.Name, kind)
	o.Independent = od.Independent
	if od.DataType != "" {
		o.DataType = od.DataType
	}
	b.m.Add(o)
	b.types[key] = o
}

func (b *builder) lookupType(name string) (*model.ObjectType, bool) {
	o, ok := b.types[norm.NFC.String(name)]
	return o, ok
}

func (b *builder) relationship(at location, rd RelationshipDoc) {
	if rd.Name == "" {
		b.fail(ErrCodeMissingField, at.with("name"), "relationship name is required")
		return
	}
	key := norm.NFC.String(rd.Name)
	if _, dup := b.rels[key]; dup || b.derived[key] {
		b.fail(ErrCodeDuplicateName, at.with("name"), "relationship %q declared twice", rd.Name)
		return
	}
	if rd.Derived {
		b.derived[key] = true
		b.dropped = append(b.dropped, "derived relationship "+rd.Name)
		return
	}
	if len(rd.Roles) == 0 {
		b.fail(ErrCodeMissingField, at.with("roles"), "relationship %q has no roles", rd.Name)
		return
	}

	rel := model.NewRelationship(rd.Name)
	names := make(map[string]bool)
	ok := true
	for _, role := range rd.Roles {
		player, found := b.lookupType(role.Player)
		if !found {
			b.fail(ErrCodeUnknownType, at.with("roles"), "role player %q is not declared", role.Player)
			ok = false
			continue
		}
		name := role.Name
		if name == "" {
			name = strings.ToLower(player.Name())
		} else {
			name = norm.NFC.String(name)
			if names[name] {
				b.fail(ErrCodeDuplicateName, at.with("roles"), "role %q declared twice on %q", role.Name, rd.Name)
				ok = false
				continue
			}
		}
		names[name] = true
		rel.AddRole(name, player)
	}
	if !ok {
		return
	}
	b.m.Add(rel)
	b.rels[key] = rel
}

func (b *builder) nesting(at location, od ObjectTypeDoc) {
	o, ok := b.lookupType(od.Name)
	if !ok {
		return
	}
	if o.Kind != model.ObjectifiedType {
		if od.Nests != "" {
			b.fail(ErrCodeInvalidNesting, at, "%s type %q cannot nest a relationship", o.Kind, od.Name)
		}
		return
	}
	if od.Nests == "" {
		b.fail(ErrCodeInvalidNesting, at, "objectified type %q must name the relationship it nests", od.Name)
		return
	}
	rel, ok := b.rels[norm.NFC.String(od.Nests)]
	if !ok {
		b.fail(ErrCodeUnknownRole, at, "nested relationship %q is not declared", od.Nests)
		return
	}
	if rel.ObjectifiedBy != nil {
		b.fail(ErrCodeInvalidNesting, at, "relationship %q is already objectified by %q", od.Nests, rel.ObjectifiedBy.Name())
		return
	}
	o.Nests = rel
	rel.ObjectifiedBy = o
}

// refError is an unresolved reference. A reference into a derived
// relationship carries the relationship name instead of a code.
type refError struct {
	code    string
	msg     string
	derived string
}

func (e *refError) Error() string {
	if e.derived != "" {
		return "derived relationship " + e.derived
	}
	return e.msg
}

func unresolved(code, format string, args ...any) *refError {
	return &refError{code: code, msg: fmt.Sprintf(format, args...)}
}

// role resolves "Relationship.role".
func (b *builder) role(ref string) (*model.Role, error) {
	relName, roleName, ok := strings.Cut(ref, ".")
	if !ok || relName == "" || roleName == "" {
		return nil, unresolved(ErrCodeUnknownRole, "role reference %q must have the form Relationship.role", ref)
	}
	key := norm.NFC.String(relName)
	if b.derived[key] {
		return nil, &refError{derived: relName}
	}
	rel, found := b.rels[key]
	if !found {
		return nil, unresolved(ErrCodeUnknownRole, "relationship %q is not declared", relName)
	}
	r := rel.Role(norm.NFC.String(roleName))
	if r == nil {
		return nil, unresolved(ErrCodeUnknownRole, "relationship %q has no role %q", relName, roleName)
	}
	return r, nil
}

// target resolves an object type name or a role reference.
func (b *builder) target(ref string) (model.Coverable, error) {
	if o, ok := b.lookupType(ref); ok {
		return o, nil
	}
	if !strings.Contains(ref, ".") {
		return nil, unresolved(ErrCodeUnknownType, "object type %q is not declared", ref)
	}
	r, err := b.role(ref)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// constraintRefs resolves the references of one constraint. A reference
// into a derived relationship drops the constraint instead of failing it.
type constraintRefs struct {
	b       *builder
	at      location
	cd      ConstraintDoc
	failed  bool
	derived string
}

func (c *constraintRefs) roles(field string, refs []string) []*model.Role {
	out := make([]*model.Role, 0, len(refs))
	for _, ref := range refs {
		r, err := c.b.role(ref)
		if err != nil {
			c.fail(field, err)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (c *constraintRefs) objectType(field, name string) *model.ObjectType {
	if name == "" {
		c.missing(field)
		return nil
	}
	o, ok := c.b.lookupType(name)
	if !ok {
		c.fail(field, unresolved(ErrCodeUnknownType, "object type %q is not declared", name))
		return nil
	}
	return o
}

func (c *constraintRefs) target() model.Coverable {
	if c.cd.Target == "" {
		c.missing("target")
		return nil
	}
	t, err := c.b.target(c.cd.Target)
	if err != nil {
		c.fail("target", err)
		return nil
	}
	return t
}

func (c *constraintRefs) join(field string, joins []JoinDoc) *model.JoinPath {
	if len(joins) == 0 {
		return nil
	}
	path := model.NewJoinPath()
	for _, j := range joins {
		out, err := c.b.role(j.Out)
		if err != nil {
			c.fail(field, err)
			return nil
		}
		in, err := c.b.role(j.In)
		if err != nil {
			c.fail(field, err)
			return nil
		}
		if err := path.AddJoin(out, in); err != nil {
			c.fail(field, unresolved(ErrCodeInvalidJoin, "%v", err))
			return nil
		}
	}
	return path
}

func (c *constraintRefs) sequence(field string, sd *SequenceDoc) model.RoleSequence {
	if sd == nil || len(sd.Roles) == 0 {
		c.missing(field)
		return model.RoleSequence{}
	}
	return model.RoleSequence{Roles: c.roles(field, sd.Roles), JoinPath: c.join(field, sd.Join)}
}

func (c *constraintRefs) missing(field string) {
	c.b.fail(ErrCodeMissingField, c.at.with(field), "%s is required for %s constraints", field, c.cd.Kind)
	c.failed = true
}

func (c *constraintRefs) fail(field string, err error) {
	var re *refError
	if errors.As(err, &re) && re.derived != "" {
		if c.derived == "" {
			c.derived = re.derived
		}
		return
	}
	code := ErrCodeGeneric
	if re != nil {
		code = re.code
	}
	c.b.fail(code, c.at.with(field), "%v", err)
	c.failed = true
}

func (b *builder) constraint(at location, cd ConstraintDoc) {
	refs := &constraintRefs{b: b, at: at, cd: cd}
	var c model.Constraint

	switch cd.Kind {
	case "uniqueness", "frequency":
		if len(cd.Roles) == 0 {
			refs.missing("roles")
			return
		}
		roles := refs.roles("roles", cd.Roles)
		minFreq, maxFreq := 1, 1
		if cd.Kind == "frequency" {
			maxFreq = model.Unbounded
			if cd.Min != nil {
				minFreq = *cd.Min
			}
			if cd.Max != nil {
				maxFreq = *cd.Max
			}
			if minFreq < 1 || maxFreq < minFreq {
				b.fail(ErrCodeInvalidValue, at.with("max"), "frequency bounds %d..%d are invalid", minFreq, maxFreq)
				return
			}
		}
		fc := model.NewFrequency(cd.Name, roles, minFreq, maxFreq)
		if cd.Identifies != "" {
			if o := refs.objectType("identifies", cd.Identifies); o != nil {
				fc.IdentifyingFor(o)
			}
		}
		if path := refs.join("join", cd.Join); path != nil {
			fc.Along(path)
		}
		c = fc
	case "mandatory":
		if len(cd.Roles) == 0 {
			refs.missing("roles")
			return
		}
		c = model.NewMandatory(cd.Name, refs.roles("roles", cd.Roles)...)
	case "value":
		target := refs.target()
		d, ok := b.domain(at, cd)
		if !ok {
			return
		}
		c = model.NewValueConstraint(cd.Name, target, d)
	case "subset", "equality":
		sub := refs.sequence("subset", cd.Subset)
		sup := refs.sequence("superset", cd.Superset)
		if cd.Kind == "equality" {
			c = model.NewEquality(cd.Name, sub, sup)
		} else {
			c = model.NewSubset(cd.Name, sub, sup)
		}
	case "subtype":
		sub := refs.objectType("subtype", cd.Subtype)
		sup := refs.objectType("supertype", cd.Supertype)
		if sub != nil && sub == sup {
			b.fail(ErrCodeInvalidValue, at.with("supertype"), "%q cannot be its own supertype", cd.Subtype)
			return
		}
		c = model.NewSubtype(cd.Name, sub, sup, cd.Preferred)
	case "ring":
		if cd.Ring == "" {
			refs.missing("ring")
			return
		}
		c = model.NewRing(cd.Name, cd.Ring, refs.roles("roles", cd.Roles)...)
	case "cardinality":
		target := refs.target()
		var ranges []model.CardinalityRange
		for _, r := range cd.Cardinality {
			upper := -1
			if r.Upper != nil {
				upper = *r.Upper
			}
			if r.Lower < 0 || (upper >= 0 && upper < r.Lower) {
				b.fail(ErrCodeInvalidValue, at.with("cardinality"), "cardinality range %d..%d is invalid", r.Lower, upper)
				return
			}
			ranges = append(ranges, model.CardinalityRange{Lower: r.Lower, Upper: upper})
		}
		c = model.NewCardinality(cd.Name, target, ranges...)
	case "":
		b.fail(ErrCodeMissingField, at.with("kind"), "constraint %q has no kind", cd.Name)
		return
	default:
		b.fail(ErrCodeInvalidKind, at.with("kind"), "unknown constraint kind %q", cd.Kind)
		return
	}

	if refs.failed {
		return
	}
	if refs.derived != "" {
		b.dropped = append(b.dropped, fmt.Sprintf("%s constraint %s over derived relationship %s", cd.Kind, cd.Name, refs.derived))
		return
	}
	b.m.Add(c)
}

// domain builds the admissible values of a value constraint.
func (b *builder) domain(at location, cd ConstraintDoc) (*model.Domain, bool) {
	if len(cd.Values) == 0 && len(cd.Ranges) == 0 {
		b.fail(ErrCodeMissingField, at.with("values"), "values or ranges are required for value constraints")
		return nil, false
	}
	d := model.NewDomain()
	for _, raw := range cd.Values {
		v, err := model.ValueOf(raw)
		if err != nil {
			b.fail(ErrCodeInvalidValue, at.with("values"), "%v", err)
			return nil, false
		}
		d.Add(v)
	}
	for _, r := range cd.Ranges {
		if err := d.AddRange(r.From, r.To); err != nil {
			b.fail(ErrCodeInvalidValue, at.with("ranges"), "%v", err)
			return nil, false
		}
	}
	return d, true
}
