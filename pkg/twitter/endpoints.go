package twitter

const (
	// BaseURL is the default API host
	BaseURL = "https://api.twitter.com"

	// TokenURL issues application-only bearer tokens
	TokenURL = BaseURL + "/oauth2/token"

	FollowersEndpoint  = "/1.1/followers/list.json"
	UserShowEndpoint   = "/1.1/users/show.json"
	TimelineEndpoint   = "/1.1/statuses/user_timeline.json"
	SearchEndpoint     = "/1.1/search/tweets.json"
	RateStatusEndpoint = "/1.1/application/rate_limit_status.json"

	// DefaultPageSize is the largest page followers/list serves
	DefaultPageSize = 200

	// TimelineCount and MentionCount match what the scoring service expects
	TimelineCount = 200
	MentionCount  = 100

	// firstCursor starts a fresh listing
	firstCursor = "-1"
)

// v1.1 error codes that change how a failure is classified
const (
	codeCouldNotAuthenticate = 32
	codeUserNotFound         = 50
	codeUserSuspended        = 63
	codeInvalidToken         = 89
	codeUnverifiedCreds      = 99
)

// SanitizeScreenName strips a leading @ and surrounding slashes or spaces
func SanitizeScreenName(name string) string {
	for len(name) > 0 && (name[0] == '@' || name[0] == ' ') {
		name = name[1:]
	}
	for len(name) > 0 && (name[len(name)-1] == '/' || name[len(name)-1] == ' ') {
		name = name[:len(name)-1]
	}
	return name
}

// IsValidScreenName checks the 1-15 character [A-Za-z0-9_] rule
func IsValidScreenName(name string) bool {
	if name == "" || len(name) > 15 {
		return false
	}
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}
	return true
}
