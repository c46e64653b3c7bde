package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationJSON(t *testing.T) {
	org := Organization{Name: "Demo", Settings: OrganizationSettings{DailyTargetMinutes: 480, TimeFormat: TimeFormat24h}}

	data, err := json.Marshal(org)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "settings")
	assert.NotContains(t, fields, "Settings")
	assert.JSONEq(t, `{"dailyTargetMinutes":480,"submissionWindowDays":0,"timeFormat":"24h"}`, string(fields["settings"]))
}
