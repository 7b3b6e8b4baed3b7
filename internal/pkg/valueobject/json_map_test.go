package valueobject

import (
	"errors"
	"testing"
)

func TestJSONMap_Scan(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr error
	}{
		{name: "bytes", in: []byte(`{"error":"smtp 550"}`), want: "smtp 550"},
		{name: "string", in: `{"error":"timeout"}`, want: "timeout"},
		{name: "decoded", in: map[string]any{"error": "x"}, want: "x"},
		{name: "nil", in: nil, want: ""},
		{name: "wrong type", in: 42, wantErr: ErrScanValueNotBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m JSONMap
			err := m.Scan(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Scan() error = %v, want %v", err, tt.wantErr)
			}
			if got := m.GetString("error"); got != tt.want {
				t.Fatalf("GetString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONMap_ValueNil(t *testing.T) {
	var m JSONMap
	v, err := m.Value()
	if err != nil || string(v.([]byte)) != "{}" {
		t.Fatalf("Value() = %v, %v", v, err)
	}
}
