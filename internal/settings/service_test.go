package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"interview-assistant/internal/storage/memory"
	"interview-assistant/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsDefaultsAndMasksKey(t *testing.T) {
	ctx := context.Background()

	st, err := NewService(memory.NewStore(), false).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@company.com", st.User.Email)
	assert.Equal(t, 60, st.Interview.DefaultDuration)
	assert.Nil(t, st.AI.OpenAIAPIKey)

	st, err = NewService(memory.NewStore(), true).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.AI.OpenAIAPIKey)
	assert.Equal(t, APIKeyConfigured, *st.AI.OpenAIAPIKey)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, true)

	st, err := svc.Update(ctx, []byte(`{"user":{"email":"lead@company.com"},"interview":{"bufferTime":10}}`))
	require.NoError(t, err)
	assert.Equal(t, "lead@company.com", st.User.Email)
	assert.Equal(t, "Admin User", st.User.Name, "unspecified fields keep their value")
	assert.Equal(t, 10, st.Interview.BufferTime)
	assert.Equal(t, 60, st.Interview.DefaultDuration)

	// the key placeholder is never persisted
	var raw map[string]map[string]any
	_, err = store.Load(ctx, documentKey, &raw)
	require.NoError(t, err)
	assert.NotContains(t, raw["ai"], "openaiApiKey")

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Interview.BufferTime)

	tests := []struct {
		body string
		msg  string
	}{
		{`{"interview":{"bufferTime":1}}`, "User email is required"},
		{`{"user":{"email":""}}`, "User email is required"},
		{`{"user":{"email":"a@b.co"},"interview":{"defaultDuration":200}}`, "Interview duration must be between 15 and 180 minutes"},
		{`{"user":{"email":"a@b.co"},"interview":{"bufferTime":31}}`, "Buffer time must be between 0 and 30 minutes"},
		{`{"user":{"email":"a@b.co"},"ai":{"questionDifficulty":"insane"}}`, "Invalid question difficulty level"},
		{`{"user":{"email":"a@b.co"},"ai":{"suggestionFrequency":"always"}}`, "Invalid suggestion frequency"},
		{`{"user":{"email":"a@b.co"},"ai":{"confidenceThreshold":1.5}}`, "Confidence threshold must be between 0 and 1"},
		{`not json`, "Invalid settings payload"},
	}
	for _, tt := range tests {
		_, err := svc.Update(ctx, []byte(tt.body))
		require.Error(t, err, tt.body)
		assert.True(t, validation.IsValidation(err), tt.body)
		assert.EqualError(t, err, tt.msg, tt.body)
	}
}

func TestUpdateMergesNestedFields(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), false)

	st, err := svc.Update(ctx, []byte(`{"user":{"email":"lead@company.com"},"notifications":{"email":{"systemAlerts":false}}}`))
	require.NoError(t, err)
	assert.False(t, st.Notifications.Email.SystemAlerts)
	assert.True(t, st.Notifications.Email.InterviewReminders, "siblings inside a nested section are kept")
	assert.True(t, st.Notifications.InApp.RealTimeUpdates)
	assert.Equal(t, "America/New_York", st.User.Timezone)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), false)

	_, err := svc.Import(ctx, json.RawMessage(`{"user":{"email":"x@y.io"},"ai":5}`))
	var ie *ImportError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, []string{"interview", "ai", "notifications", "analytics", "security"}, ie.MissingSections)

	_, err = svc.Import(ctx, nil)
	assert.EqualError(t, err, "Valid settings object is required")
	_, err = svc.Import(ctx, json.RawMessage(`[1,2]`))
	assert.EqualError(t, err, "Valid settings object is required")

	doc, err := json.Marshal(Defaults())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(doc, &m))
	m["user"].(map[string]any)["name"] = "Imported"
	doc, err = json.Marshal(m)
	require.NoError(t, err)

	n, err := svc.Import(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	st, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Imported", st.User.Name)
}

func TestResetAndExport(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), true)

	_, err := svc.Update(ctx, []byte(`{"user":{"email":"lead@company.com"},"interview":{"bufferTime":20},"security":{"requireMFA":true}}`))
	require.NoError(t, err)

	st, err := svc.Reset(ctx, "interview")
	require.NoError(t, err)
	assert.Equal(t, 5, st.Interview.BufferTime)
	assert.True(t, st.Security.RequireMFA)
	assert.Equal(t, "lead@company.com", st.User.Email)

	_, err = svc.Reset(ctx, "billing")
	assert.EqualError(t, err, "Invalid settings section")

	st, err = svc.Reset(ctx, "")
	require.NoError(t, err)
	assert.False(t, st.Security.RequireMFA)
	assert.Equal(t, "admin@company.com", st.User.Email)

	doc, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExportVersion, doc.Version)
	assert.Nil(t, doc.Settings.AI.OpenAIAPIKey)
	assert.False(t, doc.ExportDate.IsZero())
}
