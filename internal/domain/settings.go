package domain

type TimeFormat string

const (
	TimeFormat24h TimeFormat = "24h"
	TimeFormat12h TimeFormat = "12h"
)

// OrganizationSettings 是覆盖链的最底层，每个字段都必须有值
type OrganizationSettings struct {
	DailyTargetMinutes   int        `json:"dailyTargetMinutes"`
	SubmissionWindowDays int        `json:"submissionWindowDays"`
	TimeFormat           TimeFormat `json:"timeFormat"`
}

// SettingsOverride 用于部门和个人两层，nil 表示继承上一层
type SettingsOverride struct {
	DailyTargetMinutes   *int        `json:"dailyTargetMinutes"`
	SubmissionWindowDays *int        `json:"submissionWindowDays"`
	TimeFormat           *TimeFormat `json:"timeFormat"`
}

type SettingsOverrideFlags struct {
	DailyTargetMinutes   bool `json:"dailyTargetMinutes"`
	SubmissionWindowDays bool `json:"submissionWindowDays"`
	TimeFormat           bool `json:"timeFormat"`
}

type EffectiveSettings struct {
	DailyTargetMinutes   int                   `json:"dailyTargetMinutes"`
	SubmissionWindowDays int                   `json:"submissionWindowDays"`
	TimeFormat           TimeFormat            `json:"timeFormat"`
	IsOverride           SettingsOverrideFlags `json:"isOverride"`
}
