// Package device decides once, at startup, which accelerator inference runs on.
package device

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

type Device string

const (
	Auto  Device = "auto"
	CUDA  Device = "cuda"
	Metal Device = "metal"
	CPU   Device = "cpu"
)

// Parse accepts the configured device name.
func Parse(s string) (Device, error) {
	switch d := Device(strings.ToLower(strings.TrimSpace(s))); d {
	case Auto, CUDA, Metal, CPU:
		return d, nil
	case "":
		return Auto, nil
	case "mps":
		return Metal, nil
	default:
		return "", fmt.Errorf("unknown device: %s", s)
	}
}

// Accelerated reports whether model layers are offloaded from the CPU.
func (d Device) Accelerated() bool {
	return d == CUDA || d == Metal
}

// Detector reports which accelerators the host exposes.
type Detector interface {
	CUDA() bool
	Metal() bool
}

// HostDetector inspects the running machine.
type HostDetector struct {
	// Getenv and Stat default to os.Getenv and os.Stat.
	Getenv func(string) string
	Stat   func(string) (os.FileInfo, error)
	GOOS   string
	GOARCH string
}

func NewHostDetector() *HostDetector {
	return &HostDetector{Getenv: os.Getenv, Stat: os.Stat, GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

func (p *HostDetector) CUDA() bool {
	if v, ok := lookup(p.Getenv, "CUDA_VISIBLE_DEVICES"); ok {
		v = strings.TrimSpace(v)
		return v != "" && v != "-1" && v != "NoDevFiles"
	}
	stat := p.Stat
	if stat == nil {
		stat = os.Stat
	}
	_, err := stat("/dev/nvidia0")
	return err == nil
}

func (p *HostDetector) Metal() bool {
	return p.GOOS == "darwin" && p.GOARCH == "arm64"
}

func lookup(getenv func(string) string, key string) (string, bool) {
	if getenv == nil {
		v, ok := os.LookupEnv(key)
		return v, ok
	}
	v := getenv(key)
	return v, v != ""
}

// Resolve turns the configured preference into a concrete device. Auto picks
// the first available of CUDA, Metal, CPU. An explicit accelerator that the
// host lacks is an error.
func Resolve(pref Device, detector Detector) (Device, error) {
	switch pref {
	case Auto, "":
		switch {
		case detector.CUDA():
			return CUDA, nil
		case detector.Metal():
			return Metal, nil
		default:
			return CPU, nil
		}
	case CUDA:
		if !detector.CUDA() {
			return "", fmt.Errorf("device %s requested but not available", pref)
		}
		return CUDA, nil
	case Metal:
		if !detector.Metal() {
			return "", fmt.Errorf("device %s requested but not available", pref)
		}
		return Metal, nil
	case CPU:
		return CPU, nil
	default:
		return "", fmt.Errorf("unknown device: %s", pref)
	}
}
