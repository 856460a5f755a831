package messages

import (
	"context"
	"testing"

	"github.com/devicelab-dev/gaiatest/pkg/apps/apptest"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const number = "+15551230001"

func openThread(t *testing.T) (*Thread, *gaia.Env) {
	t.Helper()
	ctx := context.Background()
	f := apptest.New(t, apptest.Config{})
	env := f.Env(nil)
	require.NoError(t, env.Data.SendSMS(number, "Automated Test 1"))

	m := New(env)
	require.NoError(t, m.Launch(ctx))
	thread, err := m.TapFirstReceivedMessage(ctx)
	require.NoError(t, err)
	require.NoError(t, thread.WaitForReceivedMessages(ctx))
	return thread, env
}

func waitForHeader(t *testing.T, thread *Thread, want string) {
	t.Helper()
	err := thread.WaitForCondition(context.Background(), "header did not change", func(ctx context.Context) (bool, error) {
		text, err := thread.HeaderText()
		return text == want, err
	})
	require.NoError(t, err)
}

func TestThread_Header(t *testing.T) {
	thread, _ := openThread(t)

	text, err := thread.HeaderText()
	require.NoError(t, err)
	assert.Equal(t, number, text)
}

func TestActivities_AddToContact(t *testing.T) {
	ctx := context.Background()
	thread, env := openThread(t)
	contact := gaia.MockContact()
	require.NoError(t, env.Data.InsertContact(contact))
	require.NoError(t, thread.SwitchToApp())

	activities, err := thread.TapHeader(ctx)
	require.NoError(t, err)
	list, err := activities.TapAddToContact(ctx)
	require.NoError(t, err)
	require.NoError(t, list.WaitForContacts(ctx, 1))
	items, err := list.Contacts()
	require.NoError(t, err)
	form, err := items[0].TapForEdit(ctx)
	require.NoError(t, err)

	app, err := form.TapUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, Name, app.Name)
	waitForHeader(t, thread, contact.Name)

	all, err := env.Data.AllContacts()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, append(contact.PhoneNumbers(), number), all[0].PhoneNumbers())
}

func TestActivities_CreateNewContact(t *testing.T) {
	ctx := context.Background()
	thread, env := openThread(t)

	activities, err := thread.TapHeader(ctx)
	require.NoError(t, err)
	form, err := activities.TapCreateNewContact(ctx)
	require.NoError(t, err)
	require.NoError(t, form.TypeGivenName(ctx, "Grace"))
	require.NoError(t, form.TypeFamilyName(ctx, "Hopper"))
	_, err = form.TapUpdate(ctx)
	require.NoError(t, err)
	waitForHeader(t, thread, "Grace Hopper")

	all, err := env.Data.AllContacts()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{number}, all[0].PhoneNumbers())
}
