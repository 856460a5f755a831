package apptest

import (
	"fmt"

	"github.com/devicelab-dev/gaiatest/pkg/driver"
	"github.com/devicelab-dev/gaiatest/pkg/driver/mock"
	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

// Tour texts, in step order.
var TourSteps = []string{
	"Swipe from right to left to browse your apps.",
	"Tap and hold on an icon to delete or move it.",
	"Swipe down to access recent notifications, credit information and settings.",
	"Tap and hold the home button to browse and close recent apps.",
}

var (
	ftuLanguages   = []string{"en-US", "fr", "pt-BR"}
	continents     = []string{"Africa", "America", "Asia", "Europe"}
	citiesByRegion = map[string][]string{
		"Africa":  {"Cairo", "Nairobi"},
		"America": {"New_York", "Sao_Paulo"},
		"Asia":    {"Almaty", "Tokyo"},
		"Europe":  {"Berlin", "Lisbon"},
	}
	utcOffsets = map[string]string{
		"Cairo": "+02:00", "Nairobi": "+03:00", "New_York": "-05:00", "Sao_Paulo": "-03:00",
		"Almaty": "+06:00", "Tokyo": "+09:00", "Berlin": "+01:00", "Lisbon": "+00:00",
	}

	ftuLanguageInput = driver.CSS("#languages ul li input[name='language.current']")
	ftuDataToggle    = driver.CSS("#data_3g .pack-end label")
	ftuNetworks      = driver.CSS("ul#networks-list li")
	ftuContinent     = driver.CSS("#time-form ul li:nth-child(1) button")
	ftuCity          = driver.CSS("#time-form ul li:nth-child(2) button")
	ftuGeoToggle     = driver.CSS("#geolocation .pack-end label")
	ftuImportStatus  = driver.CSS(".ftu p")
)

// DefaultNetworks is scanned when Config.Networks is empty.
var DefaultNetworks = []Network{{SSID: "gaia-net", Password: "wifipass"}}

func ftuLanguageLabel(code string) driver.By {
	return driver.CSS(fmt.Sprintf("#languages ul li input[name='language.current'][value='%s'] ~ p", code))
}

func (f *Fakes) installFTU() {
	d := f.Device
	d.Install("FTU", "app://ftu.gaiamobile.org", func(doc *mock.Frame) {
		d.SetSetting("geolocation.enabled", true)

		sections := []*mock.Element{
			f.ftuLanguages(),
			d.El("section", "data_3g").Append(
				d.El("div", "").WithClass("pack-end").Append(
					d.El("label", "").Matching(ftuDataToggle).OnTap(func() {
						d.After(Delay, func() { d.SetCellData(true) })
					}),
				),
			),
			f.ftuWifi(),
			f.ftuDateTime(),
			d.El("section", "geolocation").Append(
				d.El("div", "").WithClass("pack-end").Append(
					d.El("label", "").Matching(ftuGeoToggle).OnTap(func() {
						enabled, _ := d.Setting("geolocation.enabled").(bool)
						d.SetSetting("geolocation.enabled", !enabled)
					}),
				),
			),
			f.ftuImportContacts(),
			d.El("section", "welcome_browser").Append(
				d.El("input", "form_share_statistics").WithAttr("type", "checkbox").OnTap(func() {
					shared, _ := d.Setting("debug.performance_data.shared").(bool)
					d.SetSetting("debug.performance_data.shared", !shared)
				}),
			),
			d.El("section", "browser_privacy").Append(
				d.El("input", "newsletter-email").WithAttr("type", "email").OnKeys(func(text string) {
					f.mu.Lock()
					f.newsletter += text
					f.mu.Unlock()
				}),
			),
		}

		current := 0
		forward := d.El("button", "forward").OnTap(func() {
			if current < len(sections)-1 {
				current++
				show(sections, current)
			}
		})

		tour, tourFinish := f.ftuTour()
		finish := d.El("section", "finish-screen").Append(
			d.El("button", "skip-tutorial-button").OnTap(func() { d.Kill("FTU") }),
			d.El("button", "lets-go-button").OnTap(func() {
				forward.Hide()
				show(sections, -1)
				tour.Show()
			}),
		)
		sections = append(sections, finish)

		for _, section := range sections {
			doc.Add(section)
		}
		doc.Add(tour, tourFinish, forward)
		show(sections, current)
	})
}

func (f *Fakes) ftuLanguages() *mock.Element {
	d := f.Device
	list := d.El("ul", "")
	for _, code := range ftuLanguages {
		code := code
		list.Append(d.El("li", "").Append(
			d.El("input", "").
				WithAttr("name", "language.current").
				WithAttr("value", code).
				Matching(ftuLanguageInput),
			d.El("p", "").WithText(code).
				Matching(ftuLanguageLabel(code)).
				OnTap(func() { d.SetSetting("language.current", code) }),
		))
	}
	return d.El("section", "languages").Append(list)
}

func (f *Fakes) ftuWifi() *mock.Element {
	d := f.Device
	networks := f.cfg.Networks
	if len(networks) == 0 {
		networks = DefaultNetworks
	}

	list := d.El("ul", "networks-list")
	password := d.El("input", "wifi_password").WithAttr("type", "password")
	var joining *Network
	var joiningState *mock.Element
	join := d.El("button", "wifi-join-button")
	form := d.El("form", "wifi-auth").Hidden().Append(password, join)

	connect := func(n Network, state *mock.Element) {
		d.After(Delay, func() {
			d.ConnectWifi(n.SSID)
			state.SetText("Connected")
		})
	}
	join.OnTap(func() {
		form.Hide()
		if joining == nil {
			return
		}
		if password.Value() != joining.Password {
			joiningState.SetText("Wrong password")
			return
		}
		connect(*joining, joiningState)
	})

	// The scan finishes a moment after the section opens.
	d.After(Delay, func() {
		for _, n := range networks {
			n := n
			state := d.El("p", "").Matching(driver.XPath(fmt.Sprintf(".//*[@id='%s']/p[2]", n.SSID)))
			if n.Password != "" {
				state.SetText("Secured")
			}
			name := d.El("p", "").WithText(n.SSID).
				Matching(driver.XPath(fmt.Sprintf(".//*[@id='%s']/p[1]", n.SSID))).
				OnTap(func() {
					if n.Password == "" {
						connect(n, state)
						return
					}
					joining, joiningState = &n, state
					password.SetAttr("value", "")
					form.Show()
				})
			list.Append(d.El("li", n.SSID).Matching(ftuNetworks).Append(name, state))
		}
	})

	return d.El("section", "wifi").Append(list, form)
}

func (f *Fakes) ftuDateTime() *mock.Element {
	d := f.Device
	title := d.El("h2", "time-zone-title")
	continent, city := "", ""
	update := func() {
		if offset, ok := utcOffsets[city]; ok {
			title.SetText(fmt.Sprintf("UTC%s %s/%s", offset, continent, city))
		}
	}

	return d.El("section", "date_and_time").Append(
		d.El("form", "time-form").Append(
			d.El("ul", "").Append(
				d.El("li", "").Append(
					d.El("button", "").Matching(ftuContinent).OnTap(func() {
						f.openSelector(continents, func(choice string) {
							if choice != "" && choice != continent {
								continent, city = choice, ""
							}
							update()
						})
					}),
				),
				d.El("li", "").Append(
					d.El("button", "").Matching(ftuCity).OnTap(func() {
						f.openSelector(citiesByRegion[continent], func(choice string) {
							if choice != "" {
								city = choice
							}
							update()
						})
					}),
				),
			),
		),
		title,
	)
}

func (f *Fakes) ftuImportContacts() *mock.Element {
	d := f.Device
	status := d.El("p", "").Matching(ftuImportStatus)
	return d.El("section", "import_contacts").Append(
		d.El("button", "sim-import-button").OnTap(func() {
			d.After(Delay, func() {
				n := f.cfg.SIMContacts
				for i := 0; i < n; i++ {
					d.AddContact(gaia.MockContact().ToMap())
				}
				switch n {
				case 0:
					status.SetText("No contacts detected on SIM to import")
				case 1:
					status.SetText("Imported one contact")
				default:
					status.SetText(fmt.Sprintf("Imported %d contacts", n))
				}
			})
		}),
		d.El("div", "").WithClass("ftu").Append(status),
	)
}

// ftuTour builds the tour and the section shown after its last step.
func (f *Fakes) ftuTour() (tour, finish *mock.Element) {
	d := f.Device
	steps := make([]*mock.Element, len(TourSteps))
	for i, text := range TourSteps {
		steps[i] = d.El("div", fmt.Sprintf("step%d", i+1)).Append(
			d.El("h1", fmt.Sprintf("step%dHeader", i+1)).WithText(text),
		)
	}

	finish = d.El("section", "tutorialFinish").Hidden().Append(
		d.El("button", "tutorialFinished").OnTap(func() { d.Kill("FTU") }),
	)
	current := 0
	tour = d.El("section", "tutorial").Hidden()
	tour.Append(steps...)
	tour.Append(
		d.El("button", "backTutorial").OnTap(func() {
			if current > 0 {
				current--
				show(steps, current)
			}
		}),
		d.El("button", "forwardTutorial").OnTap(func() {
			if current == len(steps)-1 {
				tour.Hide()
				finish.Show()
				return
			}
			current++
			show(steps, current)
		}),
	)
	show(steps, current)
	return tour, finish
}
