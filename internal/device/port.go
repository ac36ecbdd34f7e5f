package device

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/Gummygamer/smartraspberrytermometer/internal/config"
)

// OpenError means the serial device could not be opened or configured.
type OpenError struct {
	Port     string
	BaudRate int
	Err      error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open serial port %s at %d baud: %v", e.Port, e.BaudRate, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Port is a serial connection read line by line.
type Port struct {
	*LineReader
	port      serial.Port
	name      string
	closeOnce sync.Once
	closeErr  error
}

// Open opens the configured serial device. The read timeout only bounds how
// long a single read may block so the caller can notice cancellation.
func Open(cfg config.Config) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.SerialBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	sp, err := serial.Open(cfg.SerialPort, mode)
	if err != nil {
		return nil, &OpenError{Port: cfg.SerialPort, BaudRate: cfg.SerialBaudRate, Err: err}
	}

	timeout := cfg.SerialReadTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	if err := sp.SetReadTimeout(timeout); err != nil {
		_ = sp.Close()
		return nil, &OpenError{Port: cfg.SerialPort, BaudRate: cfg.SerialBaudRate, Err: fmt.Errorf("set read timeout: %w", err)}
	}

	slog.Info("serial port opened",
		"port", cfg.SerialPort,
		"baud_rate", cfg.SerialBaudRate,
		"read_timeout", timeout,
	)

	return &Port{
		LineReader: NewLineReader(sp, cfg.SerialMaxLine),
		port:       sp,
		name:       cfg.SerialPort,
	}, nil
}

// Name returns the device identifier the port was opened with.
func (p *Port) Name() string { return p.name }

// Close releases the device. Safe to call more than once.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.port.Close()
		slog.Info("serial port closed", "port", p.name)
	})
	return p.closeErr
}
