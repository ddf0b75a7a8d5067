package directions

import "testing"

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  from   NTU  to   airport "); got != "from NTU to airport" {
		t.Fatalf("NormalizeText = %q", got)
	}
}

func TestDetectMode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"walk to Jurong Point", ModeWalking},
		{"how to bike there", ModeBicycling},
		{"take the metro to Changi", ModeTransit},
		{"坐地铁去机场", ModeTransit},
		{"drive to town", ModeDriving},
		{"to Changi Airport", ModeDriving}, // default
	}
	for _, tt := range tests {
		if got := DetectMode(tt.in); got != tt.want {
			t.Errorf("DetectMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseQueryPair(t *testing.T) {
	tests := []struct {
		in                  string
		origin, destination string
	}{
		{"from NTU to Changi Airport", "NTU", "Changi Airport"},
		{"从 南洋理工 到 樟宜机场 怎么走", "南洋理工", "樟宜机场"},
		{"从NTU到机场", "NTU", "机场"},
	}
	for _, tt := range tests {
		q := ParseQuery(tt.in)
		if q.Origin != tt.origin || q.Destination != tt.destination {
			t.Errorf("ParseQuery(%q) = %+v, want origin=%q destination=%q",
				tt.in, q, tt.origin, tt.destination)
		}
	}
}

func TestParseQuerySingle(t *testing.T) {
	tests := []struct {
		in          string
		destination string
	}{
		{"navigate to Jurong Point", "Jurong Point"},
		{"directions to Changi Airport?", "Changi Airport"},
		{"导航到 樟宜机场", "樟宜机场"},
		{"去机场要多久", "机场"},
	}
	for _, tt := range tests {
		q := ParseQuery(tt.in)
		if q.Origin != "" {
			t.Errorf("ParseQuery(%q) unexpectedly parsed origin %q", tt.in, q.Origin)
		}
		if q.Destination != tt.destination {
			t.Errorf("ParseQuery(%q) destination = %q, want %q", tt.in, q.Destination, tt.destination)
		}
	}
}

func TestParseQueryStripsSuffixes(t *testing.T) {
	q := ParseQuery("导航到 樟宜机场 怎么走?")
	if q.Destination != "樟宜机场" {
		t.Fatalf("destination = %q, want suffix stripped", q.Destination)
	}
}

func TestParseQueryNoDestination(t *testing.T) {
	q := ParseQuery("what is the weather today")
	if q.Destination != "" || q.Origin != "" {
		t.Fatalf("expected empty parse, got %+v", q)
	}
	if q.Mode != ModeDriving {
		t.Fatalf("expected default mode, got %q", q.Mode)
	}
}
