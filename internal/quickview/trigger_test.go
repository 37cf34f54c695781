package quickview

import (
	"errors"
	"testing"

	"giftguide/internal/model"
)

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    Trigger
		wantErr bool
	}{
		{
			name:   "handle and secondary",
			header: `handle="hoodie", secondary="jacket"`,
			want:   Trigger{Handle: "hoodie", SecondaryHandle: "jacket"},
		},
		{
			name:   "handle only",
			header: `handle="mug"`,
			want:   Trigger{Handle: "mug"},
		},
		{
			name:   "token values",
			header: `handle=hoodie, secondary=jacket`,
			want:   Trigger{Handle: "hoodie", SecondaryHandle: "jacket"},
		},
		{
			name:   "order and extra keys ignored",
			header: `source="hotspot-3", secondary="jacket", handle="hoodie"`,
			want:   Trigger{Handle: "hoodie", SecondaryHandle: "jacket"},
		},
		{
			name:   "params ignored",
			header: `handle="hoodie";pos=2`,
			want:   Trigger{Handle: "hoodie"},
		},
		{
			name:    "empty header",
			header:  "  ",
			wantErr: true,
		},
		{
			name:    "missing handle",
			header:  `secondary="jacket"`,
			wantErr: true,
		},
		{
			name:    "empty handle",
			header:  `handle=""`,
			wantErr: true,
		},
		{
			name:    "handle is a number",
			header:  `handle=42`,
			wantErr: true,
		},
		{
			name:    "handle is an inner list",
			header:  `handle=("a" "b")`,
			wantErr: true,
		},
		{
			name:    "malformed",
			header:  `handle="unterminated`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTrigger(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTrigger() err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTrigger() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTrigger_Validate(t *testing.T) {
	if err := (Trigger{Handle: "mug"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := (Trigger{Handle: " "}).Validate(); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("Validate() = %v, want ErrInvalidRequest", err)
	}
}
