package feast

import "testing"

func TestToSDKValueAndBack(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"string", "u1", "u1"},
		{"int becomes float64", 42, float64(42)},
		{"int64 becomes float64", int64(7), float64(7)},
		{"float64", 3.5, 3.5},
		{"bool", true, true},
		{"bytes become string", []byte("raw"), "raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromSDKValue(toSDKValue(tt.in))
			if got != tt.want {
				t.Errorf("round trip %v: got %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestFromSDKValueNil(t *testing.T) {
	if got := fromSDKValue(nil); got != nil {
		t.Errorf("nil value should convert to nil, got %v", got)
	}
}
