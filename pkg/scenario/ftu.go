package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/devicelab-dev/gaiatest/pkg/apps/ftu"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

// newsletterEmail is typed into the privacy section; the wizard does not
// store it anywhere a scenario can read back.
const newsletterEmail = "testuser@example.com"

var tourSteps = []string{
	"Swipe from right to left to browse your apps.",
	"Tap and hold on an icon to delete or move it.",
	"Swipe down to access recent notifications, credit information and settings.",
	"Tap and hold the home button to browse and close recent apps.",
}

func init() {
	Register(Scenario{
		Name:        "ftu_skip_tour",
		Description: "Walk the first time use wizard through every section and skip the tour",
		Tags:        []string{"ftu"},
		Requires:    []string{"wifi.ssid"},
		Setup:       waitForWifiEnabled,
		Run:         ftuSkipTour,
	})
	Register(Scenario{
		Name:        "ftu_with_tour",
		Description: "Page through the first time use wizard and take the tour",
		Tags:        []string{"ftu"},
		Setup:       waitForWifiEnabled,
		Run:         ftuWithTour,
	})
}

func ftuSkipTour(ctx context.Context, env *gaia.Env) error {
	network, err := env.Vars.Wifi()
	if err != nil {
		return err
	}

	f := ftu.New(env)
	if err := f.Launch(ctx); err != nil {
		return err
	}
	if err := f.WaitForLanguagesDisplay(ctx); err != nil {
		return err
	}
	languages, err := f.Languages()
	if err != nil {
		return err
	}
	if err := Greater("No languages listed on screen", len(languages), 0); err != nil {
		return err
	}

	// The rest of the journey checks en-US strings.
	if err := f.TapLanguage(ctx, "en-US"); err != nil {
		return err
	}
	if err := f.OpenCellDataSection(ctx); err != nil {
		return err
	}
	if err := f.EnableData(ctx); err != nil {
		return err
	}
	if err := f.WaitForCondition(ctx, "Cell data was not connected by FTU app", func(ctx context.Context) (bool, error) {
		return env.Data.IsCellDataConnected()
	}); err != nil {
		return err
	}
	// The data layer leaves the session in the system frame.
	if err := f.SwitchToApp(); err != nil {
		return err
	}

	if err := f.OpenWifiSection(ctx); err != nil {
		return err
	}
	if err := f.WaitForNetworksAvailable(ctx); err != nil {
		return err
	}
	if err := f.ConnectToWifi(ctx, network); err != nil {
		return err
	}
	if err := f.WaitForCondition(ctx, "WiFi was not connected via FTU app", func(ctx context.Context) (bool, error) {
		return env.Data.IsWifiConnected(network)
	}); err != nil {
		return err
	}
	if _, err := env.Apps.SwitchToDisplayedApp(); err != nil {
		return err
	}

	if err := f.OpenTimezoneSection(ctx); err != nil {
		return err
	}
	if err := f.SetTimezoneContinent(ctx); err != nil {
		return err
	}
	if err := f.SetTimezoneCity(ctx); err != nil {
		return err
	}
	title, err := f.TimezoneTitle()
	if err != nil {
		return err
	}
	zone := ftu.TimezoneContinent + "/" + ftu.TimezoneCity
	if err := Check(
		True(fmt.Sprintf("time zone title %q has no UTC offset", title), strings.HasPrefix(title, "UTC")),
		True(fmt.Sprintf("time zone title %q does not name %s", title, zone), strings.HasSuffix(title, zone)),
	); err != nil {
		return err
	}

	if err := f.OpenGeolocationSection(ctx); err != nil {
		return err
	}
	if err := f.DisableGeolocation(ctx); err != nil {
		return err
	}
	if err := f.WaitForCondition(ctx, "Geolocation was not disabled by the FTU app", func(ctx context.Context) (bool, error) {
		v, err := env.Data.GetSetting("geolocation.enabled")
		if err != nil {
			return false, err
		}
		enabled, _ := v.(bool)
		return !enabled, nil
	}); err != nil {
		return err
	}
	if err := f.SwitchToApp(); err != nil {
		return err
	}

	if err := f.OpenImportContactsSection(ctx); err != nil {
		return err
	}
	if err := f.TapImportFromSIM(ctx); err != nil {
		return err
	}
	if err := f.WaitForContactsImported(ctx); err != nil {
		return err
	}
	imported, err := f.CountImportedContacts()
	if err != nil {
		return err
	}
	all, err := env.Data.AllContacts()
	if err != nil {
		return err
	}
	if err := Equal("contacts imported from SIM", imported, len(all)); err != nil {
		return err
	}
	if _, err := env.Apps.SwitchToDisplayedApp(); err != nil {
		return err
	}

	if err := f.OpenWelcomeBrowserSection(ctx); err != nil {
		return err
	}
	if err := f.TapStatisticsBox(ctx); err != nil {
		return err
	}
	if err := f.OpenPrivacyBrowserSection(ctx); err != nil {
		return err
	}
	if err := f.TypeEmailAddress(ctx, newsletterEmail); err != nil {
		return err
	}
	if err := f.OpenFinishSection(ctx); err != nil {
		return err
	}
	if err := f.TapSkipTour(ctx); err != nil {
		return err
	}
	// FTU is gone.
	return f.SwitchToTop()
}

func ftuWithTour(ctx context.Context, env *gaia.Env) error {
	f := ftu.New(env)
	if err := f.Launch(ctx); err != nil {
		return err
	}
	sections := []func(context.Context) error{
		f.WaitForLanguagesDisplay,
		f.OpenCellDataSection,
		f.OpenWifiSection,
		f.OpenTimezoneSection,
		f.OpenGeolocationSection,
		f.OpenImportContactsSection,
		f.OpenWelcomeBrowserSection,
		f.OpenPrivacyBrowserSection,
		f.OpenFinishSection,
		f.TapTakeTour,
	}
	for _, step := range sections {
		if err := step(ctx); err != nil {
			return err
		}
	}

	for i, want := range tourSteps {
		n := i + 1
		if err := f.WaitForStep(ctx, n); err != nil {
			return err
		}
		text, err := f.Step(n)
		if err != nil {
			return err
		}
		if err := Equal(fmt.Sprintf("tour step %d", n), want, text); err != nil {
			return err
		}
		if n < len(tourSteps) {
			if err := f.TapNext(ctx); err != nil {
				return err
			}
		}
	}

	last := len(tourSteps)
	steps := []func(context.Context) error{
		f.TapBack,
		func(ctx context.Context) error { return f.WaitForStep(ctx, last-1) },
		f.TapNext,
		func(ctx context.Context) error { return f.WaitForStep(ctx, last) },
		f.TapNext,
		f.WaitForFinishTutorialSection,
		f.TapLetsGoButton,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return f.SwitchToTop()
}
