package main

import (
	"testing"

	"github.com/san-kum/orbitsim/internal/config"
)

func TestParseBody(t *testing.T) {
	tests := []struct {
		in      string
		want    config.BodyConfig
		wantErr bool
	}{
		{
			in:   "Earth:5.972e24:1.496e11,0,0:0,29780,0",
			want: config.BodyConfig{Name: "Earth", Mass: 5.972e24, Position: [3]float64{1.496e11, 0, 0}, Velocity: [3]float64{0, 29780, 0}},
		},
		{
			in:   "A:5e10:0,1e5,0",
			want: config.BodyConfig{Name: "A", Mass: 5e10, Position: [3]float64{0, 1e5, 0}},
		},
		{
			in:   "Dust:0:1, 2, 3",
			want: config.BodyConfig{Name: "Dust", Mass: 0, Position: [3]float64{1, 2, 3}},
		},
		{in: "A:5e10", wantErr: true},
		{in: ":1:0,0,0", wantErr: true},
		{in: "A:heavy:0,0,0", wantErr: true},
		{in: "A:-1:0,0,0", wantErr: true},
		{in: "A:1:0,0", wantErr: true},
		{in: "A:1:0,0,0:1,x,0", wantErr: true},
		{in: "A:1:0,0,0:0,0,0:extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBody(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
