package botometer

import "github.com/goccy/go-json"

// Group holds one language group's raw scores
type Group struct {
	Astroturf    float64 `json:"astroturf"`
	FakeFollower float64 `json:"fake_follower"`
	Financial    float64 `json:"financial"`
	Other        float64 `json:"other"`
	Overall      float64 `json:"overall"`
	SelfDeclared float64 `json:"self_declared"`
	Spammer      float64 `json:"spammer"`
}

// Cap is the complete automation probability per language group
type Cap struct {
	English   float64 `json:"english"`
	Universal float64 `json:"universal"`
}

// Scores pairs the English and language-independent groups
type Scores struct {
	English   Group `json:"english"`
	Universal Group `json:"universal"`
}

// Result is the check_account response
type Result struct {
	Cap           Cap    `json:"cap"`
	RawScores     Scores `json:"raw_scores"`
	DisplayScores Scores `json:"display_scores"`
}

type checkRequest struct {
	User     json.RawMessage   `json:"user"`
	Timeline []json.RawMessage `json:"timeline"`
	Mentions []json.RawMessage `json:"mentions"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
