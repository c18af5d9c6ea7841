package enrich

import (
	"context"
	"errors"
	"strings"

	"botcheck/internal/store"
	"botcheck/pkg/botometer"
	errs "botcheck/pkg/errors"
)

// Kind is the closed set of per-record outcomes
type Kind int

const (
	// KindSuccess means scores were obtained
	KindSuccess Kind = iota
	// KindSkip means the account cannot be scored now or ever
	KindSkip
	// KindRetry means the scoring quota looks exhausted
	KindRetry
	// KindFatal aborts the run
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindSkip:
		return "skip"
	case KindRetry:
		return "retry"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is a classified scoring result. Result is set only for KindSuccess.
type Outcome struct {
	Kind   Kind
	Result *botometer.Result
	Err    error
}

// Classify maps a scoring call's return values to an Outcome.
func Classify(result *botometer.Result, err error) Outcome {
	if err == nil {
		if result == nil {
			return Outcome{Kind: KindFatal, Err: errors.New("scoring returned no result")}
		}
		return Outcome{Kind: KindSuccess, Result: result}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Kind: KindFatal, Err: err}
	}

	switch errs.TypeOf(err) {
	case errs.ErrorTypeAuth, errs.ErrorTypeNotFound, errs.ErrorTypeNoTimeline:
		return Outcome{Kind: KindSkip, Err: err}
	case errs.ErrorTypeRateLimit:
		return Outcome{Kind: KindRetry, Err: err}
	case errs.ErrorTypeForbidden, errs.ErrorTypeCredentials:
		return Outcome{Kind: KindFatal, Err: err}
	}

	// protected timelines sometimes arrive without a 401 status
	if strings.Contains(err.Error(), "Not authorized") {
		return Outcome{Kind: KindSkip, Err: err}
	}
	return Outcome{Kind: KindFatal, Err: err}
}

func toReputation(r *botometer.Result) store.Reputation {
	return store.Reputation{
		English:   toGroup(r.Cap.English, r.RawScores.English),
		Universal: toGroup(r.Cap.Universal, r.RawScores.Universal),
	}
}

func toGroup(capScore float64, g botometer.Group) store.ScoreGroup {
	return store.ScoreGroup{
		Cap:          capScore,
		Astroturf:    g.Astroturf,
		FakeFollower: g.FakeFollower,
		Financial:    g.Financial,
		Other:        g.Other,
		Overall:      g.Overall,
		SelfDeclared: g.SelfDeclared,
		Spammer:      g.Spammer,
	}
}
