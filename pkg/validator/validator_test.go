package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

func fullVars() gaia.TestVars {
	vars, err := gaia.ParseTestVars([]byte(`
email:
  gmail: {email: user@gmail.com, password: secret}
  outlook: {email: user@outlook.com, password: secret}
wifi: {ssid: gaia-net, keyManagement: WPA-PSK, psk: secret}
carrier: {phone_number: "+15551230000"}
local_phone_numbers: ["+15551230001"]
`))
	if err != nil {
		panic(err)
	}
	return vars
}

func resourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "VID_0001.3gp"), []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestValidate_AllScenarios(t *testing.T) {
	v := New(nil, nil, resourceDir(t))
	result := v.Validate(nil, fullVars())

	if !result.IsValid() {
		t.Fatalf("expected valid, got errors: %v", result.Errors)
	}
	if len(result.Scenarios) != 9 {
		t.Errorf("expected 9 scenarios, got %d: %v", len(result.Scenarios), result.Names())
	}
}

func TestValidate_UnknownScenario(t *testing.T) {
	v := New(nil, nil, "")
	result := v.Validate([]string{"sms_notification", "does_not_exist"}, fullVars())

	if result.IsValid() {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if got := result.Errors[0].Error(); got != "does_not_exist: unknown scenario" {
		t.Errorf("error = %q", got)
	}
	if names := result.Names(); len(names) != 1 || names[0] != "sms_notification" {
		t.Errorf("Names() = %v", names)
	}
}

func TestValidate_MissingTestVars(t *testing.T) {
	vars := fullVars()
	delete(vars, "email")
	delete(vars, "carrier")

	v := New(nil, nil, "")
	result := v.Validate([]string{"import_contacts_from_gmail", "sms_notification", "inter_app_comm"}, vars)

	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
	want := []string{
		"import_contacts_from_gmail: missing testvars: email.gmail.email, email.gmail.password",
		"sms_notification: missing testvars: carrier.phone_number",
	}
	for i, err := range result.Errors {
		if err.Error() != want[i] {
			t.Errorf("error %d = %q, want %q", i, err.Error(), want[i])
		}
	}
}

func TestValidate_MissingResource(t *testing.T) {
	v := New(nil, nil, t.TempDir())
	result := v.Validate([]string{"video_progress_bar"}, fullVars())

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Error(), "resource not found") {
		t.Errorf("error = %q", result.Errors[0].Error())
	}
}

func TestValidate_TagFilters(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{
			name:    "include ftu",
			include: []string{"ftu"},
			want:    []string{"ftu_skip_tour", "ftu_with_tour"},
		},
		{
			name:    "contacts without online",
			include: []string{"contacts"},
			exclude: []string{"online"},
			want:    []string{"sms_add_to_existing_contact", "sms_create_new_contact"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := New(tt.include, tt.exclude, "").Validate(nil, fullVars())
			if !result.IsValid() {
				t.Fatalf("unexpected errors: %v", result.Errors)
			}
			got := result.Names()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Names() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_NothingSelected(t *testing.T) {
	result := New([]string{"no-such-tag"}, nil, "").Validate(nil, fullVars())

	if result.IsValid() {
		t.Fatal("expected invalid result")
	}
	if got := result.Errors[0].Error(); got != "no scenarios match the selection" {
		t.Errorf("error = %q", got)
	}
}
