package serial

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")

	if cfg.Device != "/dev/ttyUSB0" {
		t.Errorf("Device = %q", cfg.Device)
	}
	if cfg.Baud != 31250 {
		t.Errorf("Baud = %d, expected 31250", cfg.Baud)
	}
	if cfg.ReadTimeout <= 0 {
		t.Error("Read timeout should be set so the reader can stop")
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}
