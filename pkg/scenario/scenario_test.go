package scenario

import (
	"context"
	"testing"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(scenarios []Scenario) []string {
	out := make([]string, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.Name
	}
	return out
}

func TestAll_SortedSuite(t *testing.T) {
	assert.Equal(t, []string{
		"ftu_skip_tour",
		"ftu_with_tour",
		"import_contacts_from_gmail",
		"import_contacts_from_outlook",
		"inter_app_comm",
		"sms_add_to_existing_contact",
		"sms_create_new_contact",
		"sms_notification",
		"video_progress_bar",
	}, names(All()))
}

func TestLookupAndSelect(t *testing.T) {
	s, ok := Lookup("sms_notification")
	require.True(t, ok)
	assert.Equal(t, []string{"carrier.phone_number"}, s.Requires)

	_, ok = Lookup("nope")
	assert.False(t, ok)

	selected, err := Select("video_progress_bar", "inter_app_comm")
	require.NoError(t, err)
	assert.Equal(t, []string{"video_progress_bar", "inter_app_comm"}, names(selected))

	_, err = Select("inter_app_comm", "nope")
	assert.EqualError(t, err, `unknown scenario "nope"`)

	all, err := Select()
	require.NoError(t, err)
	assert.Len(t, all, len(All()))
}

func TestRegister_Panics(t *testing.T) {
	run := func(context.Context, *gaia.Env) error { return nil }
	assert.Panics(t, func() { Register(Scenario{Name: "inter_app_comm", Run: run}) })
	assert.Panics(t, func() { Register(Scenario{Run: run}) })
	assert.Panics(t, func() { Register(Scenario{Name: "no_run"}) })
}

func TestFilter(t *testing.T) {
	suite := []Scenario{
		{Name: "a", Tags: []string{"sms", "contacts"}},
		{Name: "b", Tags: []string{"ftu"}},
		{Name: "c", Tags: []string{"contacts", "online"}},
		{Name: "d"},
	}

	tests := []struct {
		name             string
		include, exclude []string
		want             []string
	}{
		{"no filters", nil, nil, []string{"a", "b", "c", "d"}},
		{"include any", []string{"sms", "ftu"}, nil, []string{"a", "b"}},
		{"exclude", nil, []string{"online"}, []string{"a", "b", "d"}},
		{"include and exclude", []string{"contacts"}, []string{"online"}, []string{"a"}},
		{"nothing matches", []string{"video"}, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Filter(suite, tt.include, tt.exclude)))
		})
	}
}

func TestAssertions(t *testing.T) {
	assert.NoError(t, Equal("header", "+1555", "+1555"))
	assert.NoError(t, Equal("numbers", []string{"1", "2"}, []string{"1", "2"}))
	assert.NoError(t, True("on", true))
	assert.NoError(t, False("off", false))
	assert.NoError(t, Greater("count", 2, 1))

	err := Equal("header", "Ada", "Bob")
	execErr, ok := core.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrTextMismatch.Code, execErr.Code)
	assert.Equal(t, `header: expected "Ada", got "Bob"`, execErr.Message)
	assert.Equal(t, "Bob", execErr.Details["actual"])

	for _, err := range []error{True("screen on", false), False("screen off", true), Greater("count", 1, 1)} {
		assert.True(t, core.IsAssertion(err), "%v", err)
		assert.Equal(t, core.StatusFailed, core.Classify(err))
	}

	assert.NoError(t, Check(nil, nil))
	assert.Equal(t, err, Check(nil, err, True("x", false)))
}
