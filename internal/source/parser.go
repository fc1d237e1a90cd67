// Package source decodes raw platform rows into model records.
package source

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/theirongolddev/xpdash/internal/model"
)

// Reasons a row can be dropped during decoding.
var (
	ErrMissingObject  = errors.New("source: row has no object")
	ErrMissingSubject = errors.New("source: object has no name")
	ErrBadTimestamp   = errors.New("source: unparseable timestamp")
	ErrBadGrade       = errors.New("source: grade missing or not positive")
)

// timestampLayouts are tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseResult holds the decoded records of one snapshot plus the count of
// rows dropped as malformed. Dropping a row never aborts the batch.
type ParseResult struct {
	Profile      model.Profile
	Transactions []model.XPTransaction
	Progress     []model.ProjectProgress
	Audits       []model.AuditResult
	ParseErrors  int
	Reasons      map[error]int
}

func (r *ParseResult) drop(reason error) {
	for _, known := range []error{ErrMissingObject, ErrMissingSubject, ErrBadTimestamp, ErrBadGrade} {
		if errors.Is(reason, known) {
			reason = known
			break
		}
	}
	r.ParseErrors++
	if r.Reasons == nil {
		r.Reasons = make(map[error]int)
	}
	r.Reasons[reason]++
}

// Decode converts a snapshot into model records. Nil input sets stay nil
// so callers can tell "not fetched" apart from "no rows".
func Decode(snap Snapshot) ParseResult {
	var res ParseResult
	res.Profile = DecodeProfile(snap.Profile)

	if snap.Transactions != nil {
		res.Transactions = make([]model.XPTransaction, 0, len(snap.Transactions))
		for _, raw := range snap.Transactions {
			tx, err := DecodeTransaction(raw)
			if err != nil {
				res.drop(err)
				continue
			}
			res.Transactions = append(res.Transactions, tx)
		}
	}

	if snap.Progress != nil {
		res.Progress = make([]model.ProjectProgress, 0, len(snap.Progress))
		for _, raw := range snap.Progress {
			p, err := DecodeProgress(raw)
			if err != nil {
				res.drop(err)
				continue
			}
			res.Progress = append(res.Progress, p)
		}
	}

	if snap.Results != nil {
		res.Audits = make([]model.AuditResult, 0, len(snap.Results))
		for _, raw := range snap.Results {
			if raw.Grade == nil || math.IsNaN(*raw.Grade) {
				res.drop(ErrBadGrade)
				continue
			}
			res.Audits = append(res.Audits, model.AuditResult{Grade: *raw.Grade})
		}
	}

	return res
}

// DecodeProfile maps the public view onto model.Profile.
func DecodeProfile(raw RawProfile) model.Profile {
	p := model.Profile{
		ID:        raw.ID,
		Login:     raw.Login,
		FirstName: raw.FirstName,
		LastName:  raw.LastName,
	}
	if raw.Level != nil {
		p.PlatformLevel = *raw.Level
	}
	return p
}

// DecodeTransaction validates one transaction row.
func DecodeTransaction(raw RawTransaction) (model.XPTransaction, error) {
	name, typ, err := subject(raw.Object)
	if err != nil {
		return model.XPTransaction{}, err
	}
	at, err := ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return model.XPTransaction{}, err
	}
	return model.XPTransaction{
		Amount:      raw.Amount,
		OccurredAt:  at,
		SubjectName: name,
		SubjectType: typ,
	}, nil
}

// DecodeProgress validates one progress row. Grades must be positive.
func DecodeProgress(raw RawProgress) (model.ProjectProgress, error) {
	if raw.Grade == nil || math.IsNaN(*raw.Grade) || *raw.Grade <= 0 {
		return model.ProjectProgress{}, ErrBadGrade
	}
	name, typ, err := subject(raw.Object)
	if err != nil {
		return model.ProjectProgress{}, err
	}
	ts := raw.UpdatedAt
	if ts == "" {
		ts = raw.CreatedAt
	}
	at, err := ParseTimestamp(ts)
	if err != nil {
		return model.ProjectProgress{}, err
	}
	return model.ProjectProgress{
		Grade:       *raw.Grade,
		UpdatedAt:   at,
		SubjectName: name,
		SubjectType: typ,
	}, nil
}

// ParseTimestamp accepts the ISO-8601 shapes the platform emits and
// returns the instant in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

func subject(obj *RawObject) (name, typ string, err error) {
	if obj == nil {
		return "", "", ErrMissingObject
	}
	name = strings.TrimSpace(obj.Name)
	if name == "" {
		return "", "", ErrMissingSubject
	}
	return name, obj.Type, nil
}
