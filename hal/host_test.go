//go:build !tinygo

package hal

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestFramebufferPresentPublishesFrame(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	fb.ClearRGB(0xff, 0, 0)

	img := Image(fb)
	if got := img.RGBAAt(1, 1); got.R != 0 {
		t.Fatalf("pixel before Present() = %v, want black", got)
	}

	if err := fb.Present(); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	img = Image(fb)
	if got := img.RGBAAt(3, 2); got.R != 0xff || got.G != 0 || got.B != 0 || got.A != 0xff {
		t.Fatalf("pixel after Present() = %v, want red", got)
	}
}

func TestRGB565RoundTrip(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    uint16
	}{
		{0, 0, 0, 0x0000},
		{0xff, 0xff, 0xff, 0xffff},
		{0xff, 0, 0, 0xf800},
		{0, 0xff, 0, 0x07e0},
		{0, 0, 0xff, 0x001f},
	}
	for _, tt := range tests {
		p := RGB565(tt.r, tt.g, tt.b)
		if p != tt.want {
			t.Fatalf("RGB565(%d, %d, %d) = %#04x, want %#04x", tt.r, tt.g, tt.b, p, tt.want)
		}
		r, g, b := rgb888From565(p)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Fatalf("rgb888From565(%#04x) = %d, %d, %d", p, r, g, b)
		}
	}
}

func TestHostLoggerWritesLines(t *testing.T) {
	var out bytes.Buffer
	h := New(HostConfig{Out: &out})
	h.Logger().WriteLineString("hello")
	h.Logger().WriteLineBytes([]byte("world"))
	if got := out.String(); got != "hello\nworld\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestRunHeadlessStops(t *testing.T) {
	var steps int
	err := RunHeadless(context.Background(), func(h HAL) func() error {
		if h.Display().Framebuffer().Width() != 64 {
			t.Fatalf("framebuffer width = %d, want 64", h.Display().Framebuffer().Width())
		}
		return func() error {
			steps++
			if steps == 3 {
				return ErrStop
			}
			return nil
		}
	}, HeadlessConfig{Host: HostConfig{Width: 64, Height: 32}, Hz: 1000})
	if err != nil {
		t.Fatalf("RunHeadless() error = %v", err)
	}
	if steps != 3 {
		t.Fatalf("steps = %d, want 3", steps)
	}

	boom := errors.New("boom")
	err = RunHeadless(context.Background(), func(HAL) func() error {
		return func() error { return boom }
	}, HeadlessConfig{Hz: 1000})
	if !errors.Is(err, boom) {
		t.Fatalf("RunHeadless() error = %v, want boom", err)
	}
}

func TestSendKey(t *testing.T) {
	h := New(HostConfig{})
	if !SendKey(h, KeyEvent{Code: KeyEscape, Press: true}) {
		t.Fatal("SendKey() = false, want true")
	}
	select {
	case ev := <-h.Input().Keyboard().Events():
		if ev.Code != KeyEscape || !ev.Press {
			t.Fatalf("event = %+v, want Escape press", ev)
		}
	default:
		t.Fatal("no key event queued")
	}

	for i := 0; i < 64; i++ {
		SendKey(h, KeyEvent{Code: KeySpace, Press: true})
	}
	if SendKey(h, KeyEvent{Code: KeySpace}) {
		t.Fatal("SendKey() on a full queue = true, want false")
	}
	if SendKey(nil, KeyEvent{}) {
		t.Fatal("SendKey(nil) = true, want false")
	}
}
