package config

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: TimeOfDay{Hour: 9}},
		{in: "17:30", want: TimeOfDay{Hour: 17, Minute: 30}},
		{in: "0:00", want: TimeOfDay{}},
		{in: "24:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "nine", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayOrdering(t *testing.T) {
	open := TimeOfDay{Hour: 9}
	close := TimeOfDay{Hour: 17}

	if !open.Before(close) {
		t.Error("09:00 should be before 17:00")
	}
	if close.Before(open) {
		t.Error("17:00 should not be before 09:00")
	}
	if open.Minutes() != 540 || close.Minutes() != 1020 {
		t.Errorf("minutes = %d/%d", open.Minutes(), close.Minutes())
	}
}
