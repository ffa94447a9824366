package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/sirupsen/logrus"

	"github.com/jask/hrportal/internal/database/repository"
	"github.com/jask/hrportal/internal/ingest"
	"github.com/jask/hrportal/internal/logging"
)

// IdentityKeyVersion pins the fold used by IdentityKey. Changing the fold
// re-keys every synthesized employee, so it needs a new version and a
// migration.
const IdentityKeyVersion = 1

// nearDuplicateRatio is the edit-distance ratio under which a new name is
// reported as resembling an existing one.
const nearDuplicateRatio = 0.2

// IdentityKey derives a non-negative employee id from a textual code by
// folding its runes as acc = acc*31 + r with 32-bit wraparound and taking
// the absolute value.
func IdentityKey(code string) int64 {
	var acc int32
	for _, r := range code {
		acc = acc*31 + int32(r)
	}
	k := int64(acc)
	if k < 0 {
		k = -k
	}
	return k
}

// Resolution is the outcome of resolving one row's identity hints.
type Resolution struct {
	Employee repository.Employee
	Created  bool
	Renamed  bool
	Warnings []string
}

// EmployeeResolver maps identity hints to employees, creating minimal
// identities on first sight. It caches lookups for the lifetime of one
// import and must be Reset when the enclosing work is rolled back.
type EmployeeResolver struct {
	Employees   *repository.EmployeeRepo
	EmailDomain string
	Log         *logrus.Entry

	cache map[string]repository.Employee
	names []repository.Employee
}

// NewEmployeeResolver returns a resolver over repo.
func NewEmployeeResolver(repo *repository.EmployeeRepo, emailDomain string, log *logrus.Entry) *EmployeeResolver {
	if emailDomain == "" {
		emailDomain = "employees.local"
	}
	return &EmployeeResolver{Employees: repo, EmailDomain: emailDomain, Log: logging.OrDiscard(log)}
}

// Reset drops cached identities.
func (r *EmployeeResolver) Reset() {
	r.cache = nil
	r.names = nil
}

// Resolve returns the employee for id. Lookups run in order: numeric code as
// employee id, textual code, email. When nothing matches a new employee is
// created under a deterministic key.
func (r *EmployeeResolver) Resolve(ctx context.Context, id ingest.Identity) (Resolution, error) {
	code := strings.TrimSpace(id.Code)
	email := strings.ToLower(strings.TrimSpace(id.Email))
	name := collapse(id.Name)
	if code == "" && email == "" && name == "" {
		return Resolution{}, fmt.Errorf("no identity hint")
	}
	if r.cache == nil {
		r.cache = make(map[string]repository.Employee)
	}

	emp, err := r.lookup(ctx, code, email)
	if err != nil {
		return Resolution{}, err
	}
	if emp != nil {
		res := Resolution{Employee: *emp}
		if name != "" && name != emp.Name {
			if err := r.Employees.UpdateName(ctx, emp.ID, name); err != nil {
				return Resolution{}, fmt.Errorf("update name for %s: %w", emp.Code, err)
			}
			res.Employee.Name = name
			res.Renamed = true
		}
		r.remember(res.Employee)
		return res, nil
	}
	return r.create(ctx, code, email, name)
}

func (r *EmployeeResolver) lookup(ctx context.Context, code, email string) (*repository.Employee, error) {
	if code != "" {
		if e, ok := r.cache["code:"+code]; ok {
			return &e, nil
		}
		if n, ok := numericCode(code); ok {
			e, err := r.Employees.GetByID(ctx, n)
			if err != nil {
				return nil, fmt.Errorf("lookup id %d: %w", n, err)
			}
			if e != nil {
				return e, nil
			}
		}
		e, err := r.Employees.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("lookup code %s: %w", code, err)
		}
		if e != nil {
			return e, nil
		}
	}
	if email != "" {
		if e, ok := r.cache["email:"+email]; ok {
			return &e, nil
		}
		e, err := r.Employees.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("lookup email %s: %w", email, err)
		}
		if e != nil {
			return e, nil
		}
	}
	if code == "" {
		fallback := fallbackCode(email, "")
		if fallback != "" {
			return r.Employees.GetByCode(ctx, fallback)
		}
	}
	return nil, nil
}

func (r *EmployeeResolver) create(ctx context.Context, code, email, name string) (Resolution, error) {
	var res Resolution
	if code == "" {
		code = fallbackCode(email, name)
		if code == "" {
			return Resolution{}, fmt.Errorf("no usable identity hint in %q", name)
		}
		// A name-only hint may already have been synthesized by an earlier run.
		existing, err := r.Employees.GetByCode(ctx, code)
		if err != nil {
			return Resolution{}, fmt.Errorf("lookup code %s: %w", code, err)
		}
		if existing != nil {
			r.remember(*existing)
			return Resolution{Employee: *existing}, nil
		}
	}

	key, ok := numericCode(code)
	if !ok {
		key = IdentityKey(code)
	}
	if key != 0 {
		taken, err := r.Employees.GetByID(ctx, key)
		if err != nil {
			return Resolution{}, fmt.Errorf("lookup id %d: %w", key, err)
		}
		if taken != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("identity key %d for %s is held by %s; assigned a fresh id", key, code, taken.Code))
			key = 0
		}
	}

	if email == "" {
		email = placeholderEmail(code, r.EmailDomain)
	}
	if name == "" {
		name = code
	}
	if w := r.nearDuplicate(ctx, code, name); w != "" {
		res.Warnings = append(res.Warnings, w)
	}

	emp := repository.Employee{ID: key, Code: code, Name: name, Email: email, Active: true, Synthesized: true}
	newID, err := r.Employees.Insert(ctx, emp)
	if err != nil {
		return Resolution{}, fmt.Errorf("create employee %s: %w", code, err)
	}
	emp.ID = newID
	r.Log.WithFields(logrus.Fields{"code": code, "id": newID}).Info("synthesized employee")
	r.remember(emp)
	r.names = append(r.names, emp)
	res.Employee = emp
	res.Created = true
	return res, nil
}

func (r *EmployeeResolver) nearDuplicate(ctx context.Context, code, name string) string {
	if r.names == nil {
		all, err := r.Employees.List(ctx)
		if err != nil {
			r.Log.WithError(err).Warn("list employees for duplicate check")
			return ""
		}
		r.names = all
	}
	target := strings.ToLower(name)
	for _, e := range r.names {
		if e.Code == code || e.Name == "" {
			continue
		}
		other := strings.ToLower(e.Name)
		longest := max(len([]rune(target)), len([]rune(other)))
		if longest == 0 {
			continue
		}
		ratio := float64(levenshtein.ComputeDistance(target, other)) / float64(longest)
		if ratio < nearDuplicateRatio {
			return fmt.Sprintf("new employee %s (%s) resembles existing %s (%s)", name, code, e.Name, e.Code)
		}
	}
	return ""
}

func (r *EmployeeResolver) remember(e repository.Employee) {
	r.cache["code:"+e.Code] = e
	if e.Email != "" {
		r.cache["email:"+strings.ToLower(e.Email)] = e
	}
}

// numericCode reports whether code is a positive integer id.
func numericCode(code string) (int64, bool) {
	for _, c := range code {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(code, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// fallbackCode builds a code for rows that carry no employee code: the
// email's local part, else the name.
func fallbackCode(email, name string) string {
	src := name
	if email != "" {
		src, _, _ = strings.Cut(email, "@")
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(strings.TrimSpace(src)) {
		switch {
		case unicode.IsLetter(c) || unicode.IsDigit(c):
			b.WriteRune(c)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func placeholderEmail(code, domain string) string {
	local := strings.ToLower(code)
	local = strings.Map(func(c rune) rune {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '.' || c == '_' || c == '-' {
			return c
		}
		return '_'
	}, local)
	return local + "@" + domain
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
