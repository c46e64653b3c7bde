package analytics

import "github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"

// ResolveSettings 按 组织 -> 部门 -> 个人 的顺序逐层覆盖，nil 表示继承上一层。
// IsOverride 只在值来自部门或个人层时为 true。
func ResolveSettings(org domain.OrganizationSettings, department, user *domain.SettingsOverride) domain.EffectiveSettings {
	eff := domain.EffectiveSettings{
		DailyTargetMinutes:   org.DailyTargetMinutes,
		SubmissionWindowDays: org.SubmissionWindowDays,
		TimeFormat:           org.TimeFormat,
	}
	if eff.TimeFormat == "" {
		eff.TimeFormat = domain.TimeFormat24h
	}

	for _, layer := range []*domain.SettingsOverride{department, user} {
		if layer == nil {
			continue
		}
		if layer.DailyTargetMinutes != nil {
			eff.DailyTargetMinutes = *layer.DailyTargetMinutes
			eff.IsOverride.DailyTargetMinutes = true
		}
		if layer.SubmissionWindowDays != nil {
			eff.SubmissionWindowDays = *layer.SubmissionWindowDays
			eff.IsOverride.SubmissionWindowDays = true
		}
		if layer.TimeFormat != nil {
			eff.TimeFormat = *layer.TimeFormat
			eff.IsOverride.TimeFormat = true
		}
	}

	return eff
}
