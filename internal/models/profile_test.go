package models

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestProfileLocation(t *testing.T) {
	t.Parallel()

	if loc, err := (Profile{}).Location(); err != nil || loc != time.UTC {
		t.Fatalf("empty zone = %v %v, want UTC", loc, err)
	}
	loc, err := Profile{Timezone: "Europe/Lisbon"}.Location()
	if err != nil || loc.String() != "Europe/Lisbon" {
		t.Fatalf("Location = %v %v", loc, err)
	}
	if _, err := (Profile{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatalf("unknown zone accepted")
	}
}
