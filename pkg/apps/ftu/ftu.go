// Package ftu drives the first time use wizard: language, cell data, Wi-Fi,
// time zone, geolocation, SIM import, browser privacy and the tour.
package ftu

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/devicelab-dev/gaiatest/pkg/apps"
	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

const Name = "FTU"

// Time zone picked by SetTimezoneContinent and SetTimezoneCity.
const (
	TimezoneContinent = "Asia"
	TimezoneCity      = "Almaty"
)

var (
	nextButton = driver.ID("forward")

	languagesSection = driver.ID("languages")
	languages        = driver.CSS("#languages ul li input[name='language.current']")

	cellDataSection  = driver.ID("data_3g")
	enableDataToggle = driver.CSS("#data_3g .pack-end label")

	wifiSection      = driver.ID("wifi")
	wifiNetworks     = driver.CSS("ul#networks-list li")
	wifiPassword     = driver.ID("wifi_password")
	wifiJoinButton   = driver.ID("wifi-join-button")
	dateTimeSection  = driver.ID("date_and_time")
	continentButton  = driver.CSS("#time-form ul li:nth-child(1) button")
	cityButton       = driver.CSS("#time-form ul li:nth-child(2) button")
	timezoneTitle    = driver.ID("time-zone-title")
	geoSection       = driver.ID("geolocation")
	geoToggle        = driver.CSS("#geolocation .pack-end label")
	importSection    = driver.ID("import_contacts")
	simImportButton  = driver.ID("sim-import-button")
	simImportStatus  = driver.CSS(".ftu p")
	browserSection   = driver.ID("welcome_browser")
	statisticsToggle = driver.ID("form_share_statistics")
	privacySection   = driver.ID("browser_privacy")
	emailField       = driver.CSS(`input[type="email"]`)
	finishSection    = driver.ID("finish-screen")
	skipTourButton   = driver.ID("skip-tutorial-button")
	takeTourButton   = driver.ID("lets-go-button")

	tourNext          = driver.ID("forwardTutorial")
	tourBack          = driver.ID("backTutorial")
	tutorialFinish    = driver.ID("tutorialFinish")
	tutorialFinished  = driver.ID("tutorialFinished")
	tourStepHeaderFmt = "step%dHeader"
)

// SIM import status messages. The app reports progress only as localized
// text, so the count is read back from it.
var (
	importedNone = regexp.MustCompile(`^No contacts detected on SIM to import$`)
	importedOne  = regexp.MustCompile(`^Imported one contact$`)
	importedMany = regexp.MustCompile(`^Imported ([0-9]+) contacts$`)
)

// Ftu is the first time use wizard.
type Ftu struct {
	apps.Base
}

func New(env *gaia.Env) *Ftu {
	return &Ftu{Base: apps.NewBase(env, Name)}
}

// next taps the wizard's forward button and waits for section.
func (f *Ftu) next(ctx context.Context, section driver.By) error {
	if err := f.Tap(ctx, nextButton); err != nil {
		return err
	}
	_, err := f.WaitForElementDisplayed(ctx, section)
	return err
}

func (f *Ftu) WaitForLanguagesDisplay(ctx context.Context) error {
	_, err := f.WaitForElementDisplayed(ctx, languagesSection)
	return err
}

// Languages returns the language choices.
func (f *Ftu) Languages() ([]driver.Element, error) {
	return f.FindAll(languages)
}

// LanguageLabel locates the label of the language with the given code.
func LanguageLabel(code string) driver.By {
	return driver.CSS(fmt.Sprintf("#languages ul li input[name='language.current'][value='%s'] ~ p", code))
}

// TapLanguage selects the language with the given code, e.g. "en-US".
func (f *Ftu) TapLanguage(ctx context.Context, code string) error {
	return f.Tap(ctx, LanguageLabel(code))
}

func (f *Ftu) OpenCellDataSection(ctx context.Context) error {
	return f.next(ctx, cellDataSection)
}

// EnableData turns on mobile data.
func (f *Ftu) EnableData(ctx context.Context) error {
	return f.Tap(ctx, enableDataToggle)
}

func (f *Ftu) OpenWifiSection(ctx context.Context) error {
	return f.next(ctx, wifiSection)
}

// WaitForNetworksAvailable waits for the scan to list at least one network.
func (f *Ftu) WaitForNetworksAvailable(ctx context.Context) error {
	return f.WaitForCondition(ctx, "No networks listed on screen", func(ctx context.Context) (bool, error) {
		found, err := f.FindAll(wifiNetworks)
		if err != nil {
			return false, err
		}
		return len(found) > 0, nil
	})
}

// NetworkName and NetworkState locate the two lines of a network entry.
func NetworkName(ssid string) driver.By {
	return driver.XPath(fmt.Sprintf(".//*[@id='%s']/p[1]", ssid))
}

func NetworkState(ssid string) driver.By {
	return driver.XPath(fmt.Sprintf(".//*[@id='%s']/p[2]", ssid))
}

// SelectNetwork taps the network called ssid.
func (f *Ftu) SelectNetwork(ctx context.Context, ssid string) error {
	return f.Tap(ctx, NetworkName(ssid))
}

// ConnectToWifi selects network and, when it is secured, types its key and
// waits for the entry to report "Connected".
func (f *Ftu) ConnectToWifi(ctx context.Context, network gaia.WifiNetwork) error {
	if err := f.SelectNetwork(ctx, network.SSID); err != nil {
		return err
	}
	if !network.Secured() {
		return nil
	}
	password := network.Password()
	if password == "" {
		return core.ErrInvalidConfig.WithMessage("No psk or wep key found in testvars for secured wifi network")
	}
	if err := f.TypeInto(ctx, wifiPassword, password); err != nil {
		return err
	}
	if err := f.Tap(ctx, wifiJoinButton); err != nil {
		return err
	}
	state := NetworkState(network.SSID)
	msg := fmt.Sprintf("Network %s did not connect", network.SSID)
	return f.WaitForCondition(ctx, msg, func(ctx context.Context) (bool, error) {
		text, err := f.TextOf(state)
		if err != nil {
			return false, err
		}
		return text == "Connected", nil
	})
}

func (f *Ftu) OpenTimezoneSection(ctx context.Context) error {
	return f.next(ctx, dateTimeSection)
}

// SetTimezoneContinent picks TimezoneContinent.
func (f *Ftu) SetTimezoneContinent(ctx context.Context) error {
	if err := f.Tap(ctx, continentButton); err != nil {
		return err
	}
	return f.SelectValue(ctx, TimezoneContinent)
}

// SetTimezoneCity picks TimezoneCity.
func (f *Ftu) SetTimezoneCity(ctx context.Context) error {
	if err := f.Tap(ctx, cityButton); err != nil {
		return err
	}
	return f.SelectValue(ctx, TimezoneCity)
}

// TimezoneTitle is the selected zone as shown, e.g. "UTC+06:00 Asia/Almaty".
func (f *Ftu) TimezoneTitle() (string, error) {
	return f.TextOf(timezoneTitle)
}

func (f *Ftu) OpenGeolocationSection(ctx context.Context) error {
	return f.next(ctx, geoSection)
}

// DisableGeolocation toggles geolocation, which the wizard starts enabled.
func (f *Ftu) DisableGeolocation(ctx context.Context) error {
	return f.Tap(ctx, geoToggle)
}

func (f *Ftu) OpenImportContactsSection(ctx context.Context) error {
	return f.next(ctx, importSection)
}

func (f *Ftu) TapImportFromSIM(ctx context.Context) error {
	return f.Tap(ctx, simImportButton)
}

// WaitForContactsImported waits for the SIM import to report its result.
func (f *Ftu) WaitForContactsImported(ctx context.Context) error {
	return f.WaitForCondition(ctx, "Contact did not import from sim before timeout", func(ctx context.Context) (bool, error) {
		text, err := f.TextOf(simImportStatus)
		if err != nil {
			return false, err
		}
		_, err = ParseImportCount(text)
		return err == nil, nil
	})
}

// CountImportedContacts reads the number of contacts imported from the SIM.
func (f *Ftu) CountImportedContacts() (int, error) {
	text, err := f.TextOf(simImportStatus)
	if err != nil {
		return 0, err
	}
	return ParseImportCount(text)
}

// ParseImportCount maps a SIM import message to the number of contacts it
// reports.
func ParseImportCount(message string) (int, error) {
	switch {
	case importedNone.MatchString(message):
		return 0, nil
	case importedOne.MatchString(message):
		return 1, nil
	}
	if m := importedMany.FindStringSubmatch(message); m != nil {
		return strconv.Atoi(m[1])
	}
	return 0, core.ErrTextMismatch.
		WithMessage(fmt.Sprintf("Unrecognized SIM import message %q", message)).
		WithDetails(map[string]interface{}{"actual": message})
}

func (f *Ftu) OpenWelcomeBrowserSection(ctx context.Context) error {
	return f.next(ctx, browserSection)
}

// TapStatisticsBox toggles sharing usage statistics.
func (f *Ftu) TapStatisticsBox(ctx context.Context) error {
	return f.Tap(ctx, statisticsToggle)
}

func (f *Ftu) OpenPrivacyBrowserSection(ctx context.Context) error {
	return f.next(ctx, privacySection)
}

// TypeEmailAddress fills the newsletter address on the privacy section.
func (f *Ftu) TypeEmailAddress(ctx context.Context, email string) error {
	return f.TypeInto(ctx, emailField, email)
}

func (f *Ftu) OpenFinishSection(ctx context.Context) error {
	return f.next(ctx, finishSection)
}

// TapSkipTour closes the wizard without the tour.
func (f *Ftu) TapSkipTour(ctx context.Context) error {
	return f.Tap(ctx, skipTourButton)
}

// TapTakeTour starts the tour.
func (f *Ftu) TapTakeTour(ctx context.Context) error {
	return f.Tap(ctx, takeTourButton)
}

func tourStep(n int) driver.By {
	return driver.ID(fmt.Sprintf(tourStepHeaderFmt, n))
}

// WaitForStep waits for tour step n (1 to 4) to show.
func (f *Ftu) WaitForStep(ctx context.Context, n int) error {
	_, err := f.WaitForElementDisplayed(ctx, tourStep(n))
	return err
}

// Step returns the text of tour step n.
func (f *Ftu) Step(n int) (string, error) {
	return f.TextOf(tourStep(n))
}

// TapNext moves the tour forward.
func (f *Ftu) TapNext(ctx context.Context) error {
	return f.Tap(ctx, tourNext)
}

// TapBack moves the tour back.
func (f *Ftu) TapBack(ctx context.Context) error {
	if _, err := f.WaitForElementDisplayed(ctx, tourNext); err != nil {
		return err
	}
	return f.Tap(ctx, tourBack)
}

func (f *Ftu) WaitForFinishTutorialSection(ctx context.Context) error {
	_, err := f.WaitForElementDisplayed(ctx, tutorialFinish)
	return err
}

// TapLetsGoButton closes the wizard at the end of the tour.
func (f *Ftu) TapLetsGoButton(ctx context.Context) error {
	return f.Tap(ctx, tutorialFinished)
}
