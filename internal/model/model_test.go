package model

import (
	"errors"
	"testing"
)

func TestRemoveFold(t *testing.T) {
	tests := []struct {
		s, sub string
		want   string
	}{
		{"sodium-fabric-0.5.3", "Sodium", "-fabric-0.5.3"},
		{"JEI-jei-1.0", "jei", "--1.0"},
		{"no-match", "xyz", "no-match"},
		{"anything", "", "anything"},
		{"short", "longer than s", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			got := removeFold(tt.s, tt.sub)
			if got != tt.want {
				t.Errorf("removeFold(%q, %q) = %q, want %q", tt.s, tt.sub, got, tt.want)
			}
		})
	}
}

func TestPackageRequest_FilenameStem(t *testing.T) {
	tests := []struct {
		name string
		req  PackageRequest
		want string
	}{
		{
			name: "strips extension name and separators",
			req:  PackageRequest{Name: "Sodium", Filename: "sodium-fabric-0.5.3.jar"},
			want: "fabric-0.5.3",
		},
		{
			name: "multi word name hyphenated in filename",
			req:  PackageRequest{Name: "Mod Menu", Filename: "modmenu-7.2.2.jar"},
			want: "modmenu-7.2.2",
		},
		{
			name: "multi word name hyphenated",
			req:  PackageRequest{Name: "Cloth Config", Filename: "cloth-config-11.1.106-fabric.jar"},
			want: "11.1.106-fabric",
		},
		{
			name: "no filename",
			req:  PackageRequest{Name: "Sodium"},
			want: "",
		},
		{
			name: "filename is only the name",
			req:  PackageRequest{Name: "Lithium", Filename: "lithium.jar"},
			want: "",
		},
		{
			name: "empty name keeps the stem",
			req:  PackageRequest{Filename: "_iris-1.6.4_.jar"},
			want: "iris-1.6.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.FilenameStem(); got != tt.want {
				t.Errorf("FilenameStem() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcomeKind_IsSuccess(t *testing.T) {
	tests := []struct {
		kind     OutcomeKind
		expected bool
	}{
		{OutcomeDownloaded, true},
		{OutcomeSkipped, true},
		{OutcomeNotFound, false},
		{OutcomeFailed, false},
	}

	for _, test := range tests {
		if got := test.kind.IsSuccess(); got != test.expected {
			t.Errorf("OutcomeKind(%s).IsSuccess() = %v, expected %v", test.kind, got, test.expected)
		}
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Downloaded("Sodium", "sodium.jar", 2048), "Downloaded sodium.jar (2.0 KB)"},
		{Skipped("Sodium", "sodium.jar"), "sodium.jar already exists, skipped"},
		{NotFound("Sodium", "0.5.3", nil), `Sodium: version "0.5.3" not found`},
		{Failed("Sodium", errors.New("boom")), "Sodium: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.Kind.String(), func(t *testing.T) {
			if got := tt.outcome.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcome_WithPackage(t *testing.T) {
	o := Skipped("", "a.jar").WithPackage("A")
	if o.Package != "A" {
		t.Errorf("Package = %q, want %q", o.Package, "A")
	}
	if o.Kind != OutcomeSkipped || o.Reason != SkipReasonExists {
		t.Errorf("WithPackage changed other fields: %+v", o)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatBytes(tt.in); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
