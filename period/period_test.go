package period

import (
	"testing"
	"time"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want Period
	}{
		{
			name: "mid month",
			in:   time.Date(2017, time.July, 14, 12, 0, 0, 0, time.UTC),
			want: Period{2017, time.July},
		},
		{
			name: "first instant",
			in:   time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
			want: Period{2020, time.January},
		},
		{
			name: "non UTC zone normalized",
			in:   time.Date(2020, time.February, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
			want: Period{2020, time.January},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Of(tt.in); got != tt.want {
				t.Errorf("Of(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartEnd(t *testing.T) {
	p := Period{2017, time.July}

	wantStart := time.Date(2017, time.July, 1, 0, 0, 0, 0, time.UTC)
	if got := p.Start(); !got.Equal(wantStart) {
		t.Errorf("Start() = %v, want %v", got, wantStart)
	}

	wantEnd := time.Date(2017, time.July, 31, 23, 59, 59, 999999999, time.UTC)
	if got := p.End(); !got.Equal(wantEnd) {
		t.Errorf("End() = %v, want %v", got, wantEnd)
	}
}

func TestDays(t *testing.T) {
	tests := []struct {
		p    Period
		want int
	}{
		{Period{2017, time.July}, 31},
		{Period{2017, time.June}, 30},
		{Period{2017, time.February}, 28},
		{Period{2020, time.February}, 29},
		{Period{2100, time.February}, 28},
	}

	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			if got := tt.p.Days(); got != tt.want {
				t.Errorf("Days() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextPrevious(t *testing.T) {
	p := Period{2017, time.December}
	if got := p.Next(); got != (Period{2018, time.January}) {
		t.Errorf("Next() across year = %v", got)
	}

	p = Period{2018, time.January}
	if got := p.Previous(); got != (Period{2017, time.December}) {
		t.Errorf("Previous() across year = %v", got)
	}

	p = Period{2018, time.May}
	if got := p.Next(); got != (Period{2018, time.June}) {
		t.Errorf("Next() = %v", got)
	}
	if got := p.Previous(); got != (Period{2018, time.April}) {
		t.Errorf("Previous() = %v", got)
	}
}

func TestContains(t *testing.T) {
	p := Period{2017, time.July}

	if !p.Contains(time.Date(2017, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("first instant should be contained")
	}
	if !p.Contains(time.Date(2017, time.July, 31, 23, 59, 59, 0, time.UTC)) {
		t.Error("last second should be contained")
	}
	if p.Contains(time.Date(2017, time.August, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("next month should not be contained")
	}
}

func TestBefore(t *testing.T) {
	tests := []struct {
		a, b Period
		want bool
	}{
		{Period{2017, time.June}, Period{2017, time.July}, true},
		{Period{2017, time.July}, Period{2017, time.June}, false},
		{Period{2016, time.December}, Period{2017, time.January}, true},
		{Period{2017, time.July}, Period{2017, time.July}, false},
	}

	for _, tt := range tests {
		if got := tt.a.Before(tt.b); got != tt.want {
			t.Errorf("%v.Before(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := (Period{2017, time.July}).String(); got != "2017-07" {
		t.Errorf("String() = %q, want %q", got, "2017-07")
	}
	if got := (Period{2020, time.December}).String(); got != "2020-12" {
		t.Errorf("String() = %q, want %q", got, "2020-12")
	}
}

func TestFullDays(t *testing.T) {
	day := func(d, h, m, s int) time.Time {
		return time.Date(2017, time.July, d, h, m, s, 0, time.UTC)
	}

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"zero span", day(14, 0, 0, 0), day(14, 0, 0, 0), 0},
		{"one hour rounds up", day(14, 0, 0, 0), day(14, 1, 0, 0), 1},
		{"exactly one day", day(14, 0, 0, 0), day(15, 0, 0, 0), 1},
		{"one day plus second", day(14, 0, 0, 0), day(15, 0, 0, 1), 2},
		{"rest of month", day(14, 0, 0, 0), day(31, 23, 59, 59), 18},
		{"end before start", day(15, 0, 0, 0), day(14, 0, 0, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FullDays(tt.start, tt.end); got != tt.want {
				t.Errorf("FullDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFullHours(t *testing.T) {
	base := time.Date(2017, time.July, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"zero span", base, 0},
		{"one minute rounds up", base.Add(time.Minute), 1},
		{"exactly two hours", base.Add(2 * time.Hour), 2},
		{"two hours plus second", base.Add(2*time.Hour + time.Second), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FullHours(base, tt.end); got != tt.want {
				t.Errorf("FullHours() = %d, want %d", got, tt.want)
			}
		})
	}
}
