package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"botcheck/pkg/botometer"
	errs "botcheck/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unauthorized", errs.FromStatus(http.StatusUnauthorized, "Not authorized."), KindSkip},
		{"not found", errs.FromStatus(http.StatusNotFound, "User not found."), KindSkip},
		{"no timeline", errs.New(errs.ErrorTypeNoTimeline, "no tweets"), KindSkip},
		{"wrapped not found", fmt.Errorf("look up x: %w", errs.FromStatus(http.StatusNotFound, "gone")), KindSkip},
		{"plain not authorized text", errors.New("Twitter error response: status code = 401 Not authorized."), KindSkip},
		{"rejected credentials", errs.Wrap(errs.ErrorTypeCredentials, errors.New("Not authorized."), "obtain bearer token"), KindFatal},
		{"forbidden", errs.FromStatus(http.StatusForbidden, "You are not subscribed"), KindFatal},
		{"quota", errs.FromStatus(http.StatusTooManyRequests, "quota"), KindRetry},
		{"server error", errs.FromStatus(http.StatusBadGateway, "bad gateway"), KindFatal},
		{"network", errs.Wrap(errs.ErrorTypeNetwork, errors.New("reset"), "request"), KindFatal},
		{"cancelled", context.Canceled, KindFatal},
		{"unknown", errors.New("boom"), KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(nil, tt.err)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.err, got.Err)
			assert.Nil(t, got.Result)
		})
	}
}

func TestClassifySuccess(t *testing.T) {
	result := &botometer.Result{Cap: botometer.Cap{English: 0.5}}

	got := Classify(result, nil)
	assert.Equal(t, KindSuccess, got.Kind)
	assert.Same(t, result, got.Result)

	assert.Equal(t, KindFatal, Classify(nil, nil).Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "success", KindSuccess.String())
	assert.Equal(t, "skip", KindSkip.String())
	assert.Equal(t, "retry", KindRetry.String())
	assert.Equal(t, "fatal", KindFatal.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestToReputation(t *testing.T) {
	rep := toReputation(&botometer.Result{
		Cap: botometer.Cap{English: 0.9, Universal: 0.8},
		RawScores: botometer.Scores{
			English:   botometer.Group{Spammer: 0.3, SelfDeclared: 0.1},
			Universal: botometer.Group{Astroturf: 0.2},
		},
	})

	assert.Equal(t, 0.9, rep.English.Cap)
	assert.Equal(t, 0.3, rep.English.Spammer)
	assert.Equal(t, 0.1, rep.English.SelfDeclared)
	assert.Equal(t, 0.8, rep.Universal.Cap)
	assert.Equal(t, 0.2, rep.Universal.Astroturf)
}
