package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKeepsValidTasksNextToMalformedOnes(t *testing.T) {
	raw := `{"id":"s1","date":"2025-03-04T10:00:00Z","participant":{"name":"A"},"tasks":[
		{"taskId":2,"success":true,"ease":8},
		{"taskId":3,"success":true,"ease":"7"},
		{"taskId":"four","success":true},
		{"taskId":5,"ease":"très facile"}
	]}`
	var s TestSession
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	require.Len(t, s.Tasks, 3)
	assert.Equal(t, 1, s.DroppedTasks)

	assert.Equal(t, 2, s.Tasks[0].TaskID)
	require.NotNil(t, s.Tasks[0].Ease)
	assert.Equal(t, 8, *s.Tasks[0].Ease)

	assert.Equal(t, 3, s.Tasks[1].TaskID)
	require.NotNil(t, s.Tasks[1].Ease)
	assert.Equal(t, 7, *s.Tasks[1].Ease)

	assert.Equal(t, 5, s.Tasks[2].TaskID)
	assert.Nil(t, s.Tasks[2].Ease)
}

func TestTaskListSkipsMalformedEntries(t *testing.T) {
	var l TaskList
	require.NoError(t, json.Unmarshal([]byte(`[{"taskId":1},{"taskId":[]},{"taskId":2}]`), &l))
	require.Len(t, l, 2)
	assert.Equal(t, 2, l[1].TaskID)

	require.NoError(t, json.Unmarshal([]byte(`"oops"`), &l))
	assert.Empty(t, l)
}

func TestSessionDateLayouts(t *testing.T) {
	march4 := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		date string
		want time.Time
	}{
		{"rfc3339", `"2025-03-04T10:30:00Z"`, time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)},
		{"iso day", `"2025-03-04"`, march4},
		{"french day", `"04/03/2025"`, march4},
		{"unix millis", `1741046400000`, march4},
		{"null", `null`, time.Time{}},
		{"garbage", `"hier"`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s TestSession
			require.NoError(t, json.Unmarshal([]byte(`{"id":"x","date":`+tt.date+`}`), &s))
			assert.True(t, tt.want.Equal(s.Date), "got %s", s.Date)
		})
	}
}

func TestParticipantScaleFromString(t *testing.T) {
	var p Participant
	require.NoError(t, json.Unmarshal([]byte(`{"name":"A","aiToolsEase":"6"}`), &p))
	require.NotNil(t, p.AIToolsEase)
	assert.Equal(t, 6, *p.AIToolsEase)
}

func TestSessionRoundTripKeepsScales(t *testing.T) {
	in := TestSession{
		ID:    "s1",
		Date:  time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
		Tasks: TaskList{{TaskID: 2, Ease: IntPtr(0), SearchMethod: StringList{"menu"}}},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "DroppedTasks")

	var out TestSession
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
