package devenv

type SpotTaskTestConfig struct {
	CourseId uint64 `json:"course_id"`
	TopicId  uint64 `json:"topic_id"`
}

// SpotTestConfig is read from dev/.state/spot_config.json5, tests that need
// a real portal account skip themselves when it is absent.
type SpotTestConfig struct {
	Nim       string             `json:"nim"`
	Password  string             `json:"password"`
	PortalUrl string             `json:"portal_url"`
	SsoUrl    string             `json:"sso_url"`
	Task      SpotTaskTestConfig `json:"task"`
}
