package core

import (
	"math"
	"testing"
)

func TestMul16x16(t *testing.T) {
	tests := []struct {
		name string
		x, y int32
		want int32
	}{
		{"one by one", 65536, 65536, 65536},
		{"positive by negative", 3 << 16, -(2 << 16), -(6 << 16)},
		{"negative by negative", -(3 << 16), -(2 << 16), 6 << 16},
		{"below half lsb", 1, 0x7fff, 0},
		{"half lsb rounds up", 1, 0x8000, 1},
		{"negative half lsb rounds up", -1, 0x8000, 0},
		{"negative above half lsb", -1, 0x8001, -1},
		{"revolutions to counts", 98304, 720, 1080},
		{"negative revolutions to counts", -98304, 720, -1080},
		{"max by one", math.MaxInt32, 1 << 16, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mul16x16(tt.x, tt.y); got != tt.want {
				t.Errorf("Mul16x16(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestDiv16x16(t *testing.T) {
	tests := []struct {
		name string
		x, y int32
		want int32
	}{
		{"one revolution", 720, 720, 65536},
		{"half", 1, 2, 32768},
		{"negative numerator", -1, 2, -32768},
		{"negative denominator", 1, -2, -32768},
		{"both negative", -720, -720, 65536},
		{"third truncates", 1, 3, 21845},
		{"one count", 7, 720, 637},
		{"integer and fraction", 100000, 7, 936228571},
		{"velocity at 16000 clocks", 960000000, 16000 * 360, 10922666},
		{"clamped denominator", 960000000, math.MaxInt32, 29297},
		{"divide by one", 5, 1, 5 << 16},
		{"negative divide by one", -5, 1, -(5 << 16)},
		{"divide by minus one", -1, -1, 65536},
		{"large quotient", 1 << 14, 1, 1 << 30},
		{"zero numerator", 0, 5, 0},
		{"zero denominator", 65536, 0, 0},
		// Dropping low divisor bits for a large remainder rounds this one up.
		{"shifted divisor", 29974746, 30568938, 64263},
		{"shifted divisor negative", -29974746, 30568938, -64263},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Div16x16(tt.x, tt.y); got != tt.want {
				t.Errorf("Div16x16(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestFixString(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Fix16(98304).String(), "1.50"},
		{Fix16(-98304).String(), "-1.50"},
		{Fix8(2700).String(), "10.54"},
		{Fix8(0).String(), "0.00"},
		{Utoa(4294967295), "4294967295"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
